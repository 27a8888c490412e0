package storage_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Tiliavir/work-time-tracker/internal/model"
	"github.com/Tiliavir/work-time-tracker/internal/storage"
)

// backends runs fn against every storage driver.
func backends(t *testing.T, fn func(t *testing.T, b storage.Backend)) {
	t.Helper()
	for _, driver := range []string{storage.DriverFiles, storage.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			path := t.TempDir()
			if driver == storage.DriverSQLite {
				path = filepath.Join(path, "wtt.db")
			}
			b, err := storage.Open(driver, path, "tester")
			if err != nil {
				t.Fatalf("Open(%s): %v", driver, err)
			}
			t.Cleanup(func() { b.Close() })
			fn(t, b)
		})
	}
}

func TestPunchInAndOut(t *testing.T) {
	backends(t, func(t *testing.T, b storage.Backend) {
		start := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)

		if _, _, err := storage.Punch(b, model.KindOut, start); !errors.Is(err, storage.ErrNotClockedIn) {
			t.Fatalf("out without in: err = %v, want ErrNotClockedIn", err)
		}
		if _, _, err := storage.Punch(b, model.KindIn, start); err != nil {
			t.Fatalf("Punch in: %v", err)
		}
		if _, _, err := storage.Punch(b, model.KindIn, start.Add(time.Hour)); !errors.Is(err, storage.ErrAlreadyClockedIn) {
			t.Fatalf("double in: err = %v, want ErrAlreadyClockedIn", err)
		}

		open, _, err := storage.FindOpenEntry(b, start.Add(time.Hour))
		if err != nil {
			t.Fatal(err)
		}
		if open == nil || !open.Timestamp.Equal(start) {
			t.Fatalf("open entry = %+v, want in at %v", open, start)
		}

		if _, _, err := storage.Punch(b, model.KindOut, start); !errors.Is(err, storage.ErrOutBeforeIn) {
			t.Fatalf("out at in time: err = %v, want ErrOutBeforeIn", err)
		}
		if _, _, err := storage.Punch(b, model.KindOut, start.Add(8*time.Hour)); err != nil {
			t.Fatalf("Punch out: %v", err)
		}

		open, _, err = storage.FindOpenEntry(b, start.Add(9*time.Hour))
		if err != nil {
			t.Fatal(err)
		}
		if open != nil {
			t.Errorf("open entry after out = %+v, want nil", open)
		}
	})
}

func TestPunchOutOvernightStaysOnStartDay(t *testing.T) {
	backends(t, func(t *testing.T, b storage.Backend) {
		in := time.Date(2024, 6, 10, 22, 0, 0, 0, time.UTC)
		out := time.Date(2024, 6, 11, 6, 0, 0, 0, time.UTC)

		if _, _, err := storage.Punch(b, model.KindIn, in); err != nil {
			t.Fatal(err)
		}
		_, day, err := storage.Punch(b, model.KindOut, out)
		if err != nil {
			t.Fatal(err)
		}
		if !day.Equal(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("out stored on %v, want 2024-06-10", day)
		}

		settings := model.WorkSettings{StandardDayHours: 6, NightStartHour: 22, NightEndHour: 6}
		rep, err := storage.SummarizeDay(b, in, settings)
		if err != nil {
			t.Fatal(err)
		}
		if rep.Result.Summary.TotalWork != 8*time.Hour {
			t.Errorf("TotalWork = %v, want 8h", rep.Result.Summary.TotalWork)
		}
		if rep.Result.Summary.OvertimeNocturnal != 2*time.Hour {
			t.Errorf("OvertimeNocturnal = %v, want 2h", rep.Result.Summary.OvertimeNocturnal)
		}
	})
}

func TestDayInfoAndManualOvertime(t *testing.T) {
	backends(t, func(t *testing.T, b storage.Backend) {
		day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
		hours := 3.5
		info := model.OnLeave(model.Leave{Type: model.LeavePermit, Hours: &hours})

		if err := storage.SetDayInfo(b, day, info); err != nil {
			t.Fatal(err)
		}
		m, err := storage.AddManualOvertime(b, day, model.ManualOvertimeEntry{
			DurationMs: 7200000,
			Type:       model.OvertimeNocturnal,
			Note:       "server migration",
		})
		if err != nil {
			t.Fatal(err)
		}
		if m.ID == "" {
			t.Fatal("expected a generated id")
		}
		invalid := []model.ManualOvertimeEntry{
			{DurationMs: 1, Type: "weekend"},
			{DurationMs: 0, Type: model.OvertimeDiurnal},
			{DurationMs: model.MaxDurationMs + 1, Type: model.OvertimeDiurnal},
		}
		for _, e := range invalid {
			if _, err := storage.AddManualOvertime(b, day, e); !errors.Is(err, storage.ErrInvalidOvertime) {
				t.Errorf("AddManualOvertime(%+v) err = %v, want ErrInvalidOvertime", e, err)
			}
		}

		df, err := b.LoadDay(day)
		if err != nil {
			t.Fatal(err)
		}
		if !df.Info.Equal(info) {
			t.Errorf("Info = %+v, want %+v", df.Info, info)
		}
		if len(df.ManualOvertime) != 1 || df.ManualOvertime[0].ID != m.ID {
			t.Fatalf("ManualOvertime = %+v", df.ManualOvertime)
		}

		rep, err := storage.SummarizeDay(b, day, model.WorkSettings{StandardDayHours: 6})
		if err != nil {
			t.Fatal(err)
		}
		if rep.Result.Summary.OvertimeNocturnal != 2*time.Hour {
			t.Errorf("OvertimeNocturnal = %v, want 2h", rep.Result.Summary.OvertimeNocturnal)
		}

		removed, err := storage.RemoveManualOvertime(b, day, m.ID)
		if err != nil || !removed {
			t.Fatalf("RemoveManualOvertime = %v, %v", removed, err)
		}
		removed, err = storage.RemoveManualOvertime(b, day, m.ID)
		if err != nil || removed {
			t.Fatalf("second RemoveManualOvertime = %v, %v, want false", removed, err)
		}
	})
}

func TestLoadRange(t *testing.T) {
	backends(t, func(t *testing.T, b storage.Backend) {
		from := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, 6, 16, 23, 59, 59, 0, time.UTC)
		if err := storage.SetDayInfo(b, from.AddDate(0, 0, 2), model.OnShift("M")); err != nil {
			t.Fatal(err)
		}

		days, err := storage.LoadRange(b, from, to)
		if err != nil {
			t.Fatal(err)
		}
		if len(days) != 7 {
			t.Fatalf("days = %d, want 7", len(days))
		}
		if id, ok := days[2].Info.ShiftID(); !ok || id != "M" {
			t.Errorf("day 3 shift = %q, %v", id, ok)
		}
		if days[6].Date != "2024-06-16" {
			t.Errorf("last day = %q, want 2024-06-16", days[6].Date)
		}
	})
}
