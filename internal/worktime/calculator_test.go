package worktime_test

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/Tiliavir/work-time-tracker/internal/model"
	"github.com/Tiliavir/work-time-tracker/internal/worktime"
)

// 2024-06-10 is a Monday.
var monday = time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

func at(day, hour, minute int) time.Time {
	return time.Date(2024, 6, day, hour, minute, 0, 0, time.UTC)
}

func in(id string, t time.Time) model.TimeEntry {
	return model.TimeEntry{ID: id, Timestamp: t, Kind: model.KindIn}
}

func out(id string, t time.Time) model.TimeEntry {
	return model.TimeEntry{ID: id, Timestamp: t, Kind: model.KindOut}
}

func baseSettings() model.WorkSettings {
	return model.WorkSettings{
		StandardDayHours: 6,
		NightStartHour:   22,
		NightEndHour:     6,
	}
}

func intPtr(v int) *int { return &v }

func TestCalculate_Empty(t *testing.T) {
	res := worktime.Calculate(monday, nil, baseSettings(), model.Unplanned(), model.Unplanned(), nil)
	if !res.Summary.IsZero() {
		t.Errorf("Summary = %+v, want zero", res.Summary)
	}
	if len(res.Intervals) != 0 {
		t.Errorf("Intervals = %d, want 0", len(res.Intervals))
	}
	if res.Open != nil {
		t.Errorf("Open = %+v, want nil", res.Open)
	}
}

func TestCalculate_LeaveDayWithoutPunches(t *testing.T) {
	s := baseSettings()
	s.TreatHolidayAsOvertime = true
	leave := model.OnLeave(model.Leave{Type: model.LeaveVacation})

	res := worktime.Calculate(monday, nil, s, leave, model.Unplanned(), nil)
	if !res.Summary.IsZero() {
		t.Errorf("Summary = %+v, want zero", res.Summary)
	}
}

func TestCalculate_EndToEnd(t *testing.T) {
	entries := []model.TimeEntry{
		in("i1", at(10, 8, 0)),
		out("o1", at(10, 16, 0)),
	}
	res := worktime.Calculate(monday, entries, baseSettings(), model.Unplanned(), model.Unplanned(), nil)

	if res.Summary.Standard != 6*time.Hour {
		t.Errorf("Standard = %v, want 6h", res.Summary.Standard)
	}
	if res.Summary.Excess != 2*time.Hour {
		t.Errorf("Excess = %v, want 2h", res.Summary.Excess)
	}
	if res.Summary.Overtime() != 0 {
		t.Errorf("Overtime = %v, want 0", res.Summary.Overtime())
	}
	if res.Summary.TotalWork != 8*time.Hour {
		t.Errorf("TotalWork = %v, want 8h", res.Summary.TotalWork)
	}
	if len(res.Intervals) != 1 {
		t.Fatalf("Intervals = %d, want 1", len(res.Intervals))
	}
	iv := res.Intervals[0]
	if iv.ClosingEntryID != "o1" {
		t.Errorf("ClosingEntryID = %q, want %q", iv.ClosingEntryID, "o1")
	}
	if !iv.Start.Equal(at(10, 8, 0)) || !iv.End.Equal(at(10, 16, 0)) {
		t.Errorf("interval = %v..%v, want 08:00..16:00", iv.Start, iv.End)
	}
	if iv.DaySummary != res.Summary {
		t.Errorf("interval breakdown %+v differs from day %+v", iv.DaySummary, res.Summary)
	}
}

func TestCalculate_ExcessRuleOvertime(t *testing.T) {
	s := baseSettings()
	s.ExcessRule = model.ExcessRuleOvertime
	entries := []model.TimeEntry{in("i1", at(10, 8, 0)), out("o1", at(10, 16, 0))}

	res := worktime.Calculate(monday, entries, s, model.Unplanned(), model.Unplanned(), nil)
	if res.Summary.Standard != 6*time.Hour {
		t.Errorf("Standard = %v, want 6h", res.Summary.Standard)
	}
	if res.Summary.OvertimeDiurnal != 2*time.Hour {
		t.Errorf("OvertimeDiurnal = %v, want 2h", res.Summary.OvertimeDiurnal)
	}
	if res.Summary.Excess != 0 {
		t.Errorf("Excess = %v, want 0", res.Summary.Excess)
	}
}

func TestCalculate_Classification(t *testing.T) {
	leave := model.OnLeave(model.Leave{Type: model.LeaveHoliday})

	tests := []struct {
		name     string
		entries  []model.TimeEntry
		mutate   func(*model.WorkSettings)
		day      model.DayInfo
		next     model.DayInfo
		want     worktime.DaySummary
		wantIvls int
	}{
		{
			name:    "evening shift reaching into the night window",
			entries: []model.TimeEntry{in("i", at(10, 14, 0)), out("o", at(10, 23, 0))},
			want: worktime.DaySummary{
				TotalWork:         9 * time.Hour,
				Standard:          6 * time.Hour,
				Excess:            2 * time.Hour,
				OvertimeNocturnal: time.Hour,
			},
			wantIvls: 1,
		},
		{
			name:    "overnight into a holiday",
			entries: []model.TimeEntry{in("i", at(10, 18, 0)), out("o", at(11, 4, 0))},
			mutate: func(s *model.WorkSettings) {
				s.StandardDayHours = 8
				s.TreatHolidayAsOvertime = true
			},
			next: leave,
			want: worktime.DaySummary{
				TotalWork:                10 * time.Hour,
				Standard:                 8 * time.Hour,
				OvertimeNocturnalHoliday: 2 * time.Hour,
			},
			wantIvls: 1,
		},
		{
			name:    "overnight into a working day",
			entries: []model.TimeEntry{in("i", at(10, 18, 0)), out("o", at(11, 4, 0))},
			mutate: func(s *model.WorkSettings) {
				s.StandardDayHours = 8
				s.TreatHolidayAsOvertime = true
			},
			want: worktime.DaySummary{
				TotalWork:         10 * time.Hour,
				Standard:          8 * time.Hour,
				OvertimeNocturnal: 2 * time.Hour,
			},
			wantIvls: 1,
		},
		{
			name:    "leave day with holiday treatment turns everything into overtime",
			entries: []model.TimeEntry{in("i", at(10, 20, 0)), out("o", at(10, 23, 0))},
			mutate:  func(s *model.WorkSettings) { s.TreatHolidayAsOvertime = true },
			day:     leave,
			want: worktime.DaySummary{
				TotalWork:                3 * time.Hour,
				OvertimeHoliday:          2 * time.Hour,
				OvertimeNocturnalHoliday: time.Hour,
			},
			wantIvls: 1,
		},
		{
			name:    "leave day without holiday treatment is worked normally",
			entries: []model.TimeEntry{in("i", at(10, 8, 0)), out("o", at(10, 16, 0))},
			day:     leave,
			next:    leave,
			want: worktime.DaySummary{
				TotalWork: 8 * time.Hour,
				Standard:  6 * time.Hour,
				Excess:    2 * time.Hour,
			},
			wantIvls: 1,
		},
		{
			name: "standard threshold is shared by all intervals of the day",
			entries: []model.TimeEntry{
				in("i1", at(10, 8, 0)), out("o1", at(10, 12, 0)),
				in("i2", at(10, 13, 0)), out("o2", at(10, 17, 0)),
			},
			want: worktime.DaySummary{
				TotalWork: 8 * time.Hour,
				Standard:  6 * time.Hour,
				Excess:    2 * time.Hour,
			},
			wantIvls: 2,
		},
		{
			name:    "non-wrapping night window",
			entries: []model.TimeEntry{in("i", at(10, 1, 0)), out("o", at(10, 9, 0))},
			mutate: func(s *model.WorkSettings) {
				s.NightStartHour = 0
				s.NightEndHour = 5
				s.StandardDayHours = 2
			},
			want: worktime.DaySummary{
				TotalWork:         8 * time.Hour,
				Standard:          2 * time.Hour,
				OvertimeNocturnal: 2 * time.Hour,
				Excess:            4 * time.Hour,
			},
			wantIvls: 1,
		},
		{
			name:     "zero standard hours",
			entries:  []model.TimeEntry{in("i", at(10, 8, 0)), out("o", at(10, 10, 0))},
			mutate:   func(s *model.WorkSettings) { s.StandardDayHours = 0 },
			want:     worktime.DaySummary{TotalWork: 2 * time.Hour, Excess: 2 * time.Hour},
			wantIvls: 1,
		},
		{
			name:     "negative standard hours",
			entries:  []model.TimeEntry{in("i", at(10, 8, 0)), out("o", at(10, 10, 0))},
			mutate:   func(s *model.WorkSettings) { s.StandardDayHours = -3 },
			want:     worktime.DaySummary{TotalWork: 2 * time.Hour, Excess: 2 * time.Hour},
			wantIvls: 1,
		},
		{
			name:     "zero-duration interval",
			entries:  []model.TimeEntry{in("i", at(10, 9, 0)), out("o", at(10, 9, 0))},
			wantIvls: 0,
		},
		{
			name: "stray out and duplicate in",
			entries: []model.TimeEntry{
				out("o0", at(10, 7, 0)),
				in("i1", at(10, 8, 0)),
				in("i2", at(10, 9, 0)),
				out("o1", at(10, 10, 0)),
			},
			want:     worktime.DaySummary{TotalWork: 2 * time.Hour, Standard: 2 * time.Hour},
			wantIvls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := baseSettings()
			if tt.mutate != nil {
				tt.mutate(&s)
			}
			res := worktime.Calculate(monday, tt.entries, s, tt.day, tt.next, nil)
			if res.Summary != tt.want {
				t.Errorf("Summary = %+v, want %+v", res.Summary, tt.want)
			}
			if len(res.Intervals) != tt.wantIvls {
				t.Errorf("Intervals = %d, want %d", len(res.Intervals), tt.wantIvls)
			}
		})
	}
}

func TestCalculate_HolidayGating(t *testing.T) {
	s := baseSettings()
	s.TreatHolidayAsOvertime = false
	leave := model.OnLeave(model.Leave{Type: model.LeaveVacation})
	entries := []model.TimeEntry{in("i", at(10, 12, 0)), out("o", at(11, 3, 0))}

	res := worktime.Calculate(monday, entries, s, leave, leave, nil)
	if res.Summary.OvertimeHoliday != 0 || res.Summary.OvertimeNocturnalHoliday != 0 {
		t.Errorf("holiday buckets = %v/%v, want 0", res.Summary.OvertimeHoliday, res.Summary.OvertimeNocturnalHoliday)
	}
	if res.Summary.TotalWork != 15*time.Hour {
		t.Errorf("TotalWork = %v, want 15h", res.Summary.TotalWork)
	}
}

func TestCalculate_UnpairedIn(t *testing.T) {
	entries := []model.TimeEntry{in("i1", at(10, 9, 0))}
	res := worktime.Calculate(monday, entries, baseSettings(), model.Unplanned(), model.Unplanned(), nil)

	if !res.Summary.IsZero() {
		t.Errorf("Summary = %+v, want zero", res.Summary)
	}
	if len(res.Intervals) != 0 {
		t.Errorf("Intervals = %d, want 0", len(res.Intervals))
	}
	if res.Open == nil || res.Open.ID != "i1" {
		t.Errorf("Open = %+v, want entry i1", res.Open)
	}
}

func TestCalculate_NullHoursBeforeShiftStart(t *testing.T) {
	s := baseSettings()
	s.Shifts = []model.Shift{
		{ID: "M", Name: "Morning", StartHour: intPtr(9), EndHour: intPtr(15)},
		{ID: "R", Name: "Rest"},
	}
	entries := []model.TimeEntry{in("i", at(10, 8, 0)), out("o", at(10, 16, 0))}

	res := worktime.Calculate(monday, entries, s, model.OnShift("M"), model.Unplanned(), nil)
	want := worktime.DaySummary{
		TotalWork: 7 * time.Hour,
		Standard:  6 * time.Hour,
		Excess:    time.Hour,
		NullHours: time.Hour,
	}
	if res.Summary != want {
		t.Errorf("Summary = %+v, want %+v", res.Summary, want)
	}

	// A rest shift has no start, so nothing is null.
	res = worktime.Calculate(monday, entries, s, model.OnShift("R"), model.Unplanned(), nil)
	if res.Summary.NullHours != 0 || res.Summary.TotalWork != 8*time.Hour {
		t.Errorf("rest shift: Summary = %+v, want 8h worked and no null hours", res.Summary)
	}

	// Unknown shift ids are ignored.
	res = worktime.Calculate(monday, entries, s, model.OnShift("X"), model.Unplanned(), nil)
	if res.Summary.NullHours != 0 {
		t.Errorf("unknown shift: NullHours = %v, want 0", res.Summary.NullHours)
	}
}

func TestCalculate_AutoBreak(t *testing.T) {
	s := baseSettings()
	s.DeductAutoBreak = true
	s.AutoBreakThresholdHours = 6
	s.AutoBreakMinutes = 30

	t.Run("deducted from the last interval's ordinary time", func(t *testing.T) {
		entries := []model.TimeEntry{
			in("i1", at(10, 8, 0)), out("o1", at(10, 12, 0)),
			in("i2", at(10, 13, 0)), out("o2", at(10, 17, 0)),
		}
		res := worktime.Calculate(monday, entries, s, model.Unplanned(), model.Unplanned(), nil)
		if res.Summary.Standard != 5*time.Hour+30*time.Minute {
			t.Errorf("Standard = %v, want 5h30m", res.Summary.Standard)
		}
		if res.Summary.BreakDeducted != 30*time.Minute {
			t.Errorf("BreakDeducted = %v, want 30m", res.Summary.BreakDeducted)
		}
		if res.Summary.TotalWork != 7*time.Hour+30*time.Minute {
			t.Errorf("TotalWork = %v, want 7h30m", res.Summary.TotalWork)
		}
		if got := res.Intervals[0].Standard; got != 4*time.Hour {
			t.Errorf("first interval Standard = %v, want 4h", got)
		}
		if got := res.Intervals[1].Standard; got != time.Hour+30*time.Minute {
			t.Errorf("second interval Standard = %v, want 1h30m", got)
		}
	})

	t.Run("spills back when the last interval has no ordinary time", func(t *testing.T) {
		s := s
		s.StandardDayHours = 4
		entries := []model.TimeEntry{
			in("i1", at(10, 8, 0)), out("o1", at(10, 12, 0)),
			in("i2", at(10, 13, 0)), out("o2", at(10, 16, 0)),
		}
		res := worktime.Calculate(monday, entries, s, model.Unplanned(), model.Unplanned(), nil)
		if got := res.Intervals[0].BreakDeducted; got != 30*time.Minute {
			t.Errorf("first interval BreakDeducted = %v, want 30m", got)
		}
		if got := res.Intervals[1].BreakDeducted; got != 0 {
			t.Errorf("second interval BreakDeducted = %v, want 0", got)
		}
	})

	t.Run("threshold must be exceeded", func(t *testing.T) {
		entries := []model.TimeEntry{in("i", at(10, 8, 0)), out("o", at(10, 14, 0))}
		res := worktime.Calculate(monday, entries, s, model.Unplanned(), model.Unplanned(), nil)
		if res.Summary.BreakDeducted != 0 {
			t.Errorf("BreakDeducted = %v, want 0", res.Summary.BreakDeducted)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		s := s
		s.DeductAutoBreak = false
		entries := []model.TimeEntry{in("i", at(10, 8, 0)), out("o", at(10, 18, 0))}
		res := worktime.Calculate(monday, entries, s, model.Unplanned(), model.Unplanned(), nil)
		if res.Summary.BreakDeducted != 0 {
			t.Errorf("BreakDeducted = %v, want 0", res.Summary.BreakDeducted)
		}
	})
}

func TestCalculate_ManualOvertime(t *testing.T) {
	manual := []model.ManualOvertimeEntry{
		{ID: "m1", DurationMs: (2 * time.Hour).Milliseconds(), Type: model.OvertimeNocturnal},
	}
	res := worktime.Calculate(monday, nil, baseSettings(), model.Unplanned(), model.Unplanned(), manual)
	want := worktime.DaySummary{TotalWork: 2 * time.Hour, OvertimeNocturnal: 2 * time.Hour}
	if res.Summary != want {
		t.Errorf("Summary = %+v, want %+v", res.Summary, want)
	}
	if len(res.Intervals) != 0 {
		t.Errorf("Intervals = %d, want 0", len(res.Intervals))
	}

	manual = append(manual,
		model.ManualOvertimeEntry{ID: "m2", DurationMs: -1000, Type: model.OvertimeDiurnal},
		model.ManualOvertimeEntry{ID: "m3", DurationMs: 1000, Type: "weekend"},
		model.ManualOvertimeEntry{ID: "m4", DurationMs: 1500, Type: model.OvertimeHoliday},
		model.ManualOvertimeEntry{ID: "m5", DurationMs: model.MaxDurationMs + 1, Type: model.OvertimeNocturnal},
	)
	res = worktime.Calculate(monday, nil, baseSettings(), model.Unplanned(), model.Unplanned(), manual)
	if res.Summary.OvertimeDiurnal != 0 {
		t.Errorf("negative manual entry booked: %v", res.Summary.OvertimeDiurnal)
	}
	if res.Summary.OvertimeNocturnal != 2*time.Hour {
		t.Errorf("OvertimeNocturnal = %v, want 2h with the oversized entry skipped", res.Summary.OvertimeNocturnal)
	}
	if res.Summary.OvertimeHoliday != 1500*time.Millisecond {
		t.Errorf("OvertimeHoliday = %v, want 1.5s", res.Summary.OvertimeHoliday)
	}
	if res.Summary.TotalWork != 2*time.Hour+1500*time.Millisecond {
		t.Errorf("TotalWork = %v, want 2h0m1.5s", res.Summary.TotalWork)
	}
}

func TestCalculate_Conservation(t *testing.T) {
	s := baseSettings()
	s.DeductAutoBreak = true
	s.AutoBreakThresholdHours = 5
	s.AutoBreakMinutes = 45
	s.TreatHolidayAsOvertime = true
	s.Shifts = []model.Shift{{ID: "N", Name: "Night", StartHour: intPtr(21), EndHour: intPtr(5)}}

	entries := []model.TimeEntry{
		in("i1", at(10, 7, 13)), out("o1", at(10, 11, 47)),
		in("i2", at(10, 19, 2)), out("o2", at(11, 5, 31)),
		in("i3", at(11, 6, 0)),
	}
	manual := []model.ManualOvertimeEntry{
		{ID: "m1", DurationMs: 5400000, Type: model.OvertimeDiurnal},
		{ID: "m2", DurationMs: 600000, Type: model.OvertimeNocturnalHoliday},
	}
	next := model.OnLeave(model.Leave{Type: model.LeaveSick})

	res := worktime.Calculate(monday, entries, s, model.OnShift("N"), next, manual)

	var raw time.Duration
	for _, iv := range res.Intervals {
		raw += iv.End.Sub(iv.Start)
		if iv.TotalWork != iv.Standard+iv.Excess+iv.Overtime() {
			t.Errorf("interval %s: TotalWork %v is not the sum of its buckets", iv.ClosingEntryID, iv.TotalWork)
		}
	}
	var manualSum time.Duration
	for _, m := range manual {
		manualSum += m.Duration()
	}

	sum := res.Summary
	if sum.TotalWork != sum.Standard+sum.Excess+sum.Overtime() {
		t.Errorf("TotalWork %v is not the sum of its buckets", sum.TotalWork)
	}
	if want := raw - sum.NullHours - sum.BreakDeducted + manualSum; sum.TotalWork != want {
		t.Errorf("TotalWork = %v, want %v", sum.TotalWork, want)
	}
	if sum.BreakDeducted != 45*time.Minute {
		t.Errorf("BreakDeducted = %v, want 45m", sum.BreakDeducted)
	}
	if sum.NullHours == 0 {
		t.Error("expected null hours before the 21:00 shift start")
	}
}

func TestCalculate_IdempotentAndOrderIndependent(t *testing.T) {
	entries := []model.TimeEntry{
		out("o2", at(10, 23, 30)),
		in("i1", at(10, 6, 0)),
		in("i2", at(10, 15, 0)),
		out("o1", at(10, 12, 0)),
	}
	original := append([]model.TimeEntry(nil), entries...)
	sorted := []model.TimeEntry{entries[1], entries[3], entries[2], entries[0]}

	a := worktime.Calculate(monday, entries, baseSettings(), model.Unplanned(), model.Unplanned(), nil)
	b := worktime.Calculate(monday, entries, baseSettings(), model.Unplanned(), model.Unplanned(), nil)
	c := worktime.Calculate(monday, sorted, baseSettings(), model.Unplanned(), model.Unplanned(), nil)

	if !reflect.DeepEqual(a, b) {
		t.Errorf("repeated calls differ:\n%+v\n%+v", a, b)
	}
	if !reflect.DeepEqual(a, c) {
		t.Errorf("input order changed the result:\n%+v\n%+v", a, c)
	}
	if !reflect.DeepEqual(entries, original) {
		t.Error("Calculate modified its input")
	}
}

func TestResultJSON(t *testing.T) {
	entries := []model.TimeEntry{in("i1", at(10, 8, 0)), out("o1", at(10, 16, 0))}
	res := worktime.Calculate(monday, entries, baseSettings(), model.Unplanned(), model.Unplanned(), nil)

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded struct {
		Summary   map[string]int64 `json:"summary"`
		Intervals []struct {
			StandardWorkMs int64  `json:"standardWorkMs"`
			ClosingEntryID string `json:"closingEntryId"`
		} `json:"intervals"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got := decoded.Summary["standardWorkMs"]; got != 6*3600*1000 {
		t.Errorf("standardWorkMs = %d, want %d", got, 6*3600*1000)
	}
	if got := decoded.Summary["excessHoursMs"]; got != 2*3600*1000 {
		t.Errorf("excessHoursMs = %d, want %d", got, 2*3600*1000)
	}
	if len(decoded.Intervals) != 1 || decoded.Intervals[0].ClosingEntryID != "o1" {
		t.Errorf("intervals = %+v, want one closed by o1", decoded.Intervals)
	}
}
