package storage

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/Tiliavir/work-time-tracker/internal/model"
	"github.com/Tiliavir/work-time-tracker/internal/timecalc"
	"github.com/Tiliavir/work-time-tracker/internal/worktime"
)

// lookbackDays bounds how far FindOpenEntry searches for an open session.
const lookbackDays = 7

var (
	ErrAlreadyClockedIn = errors.New("already clocked in")
	ErrNotClockedIn     = errors.New("not clocked in")
	ErrOutBeforeIn      = errors.New("clock-out must be after clock-in")
	ErrInvalidOvertime  = errors.New("invalid overtime")
)

// FindOpenEntry searches the day records from now back a week (most recent
// first) for an "in" punch without a matching "out". It returns the entry
// and the day it is stored on.
func FindOpenEntry(b Backend, now time.Time) (*model.TimeEntry, time.Time, error) {
	for i := range lookbackDays {
		day := timecalc.StartOfDay(now.AddDate(0, 0, -i))
		df, err := b.LoadDay(day)
		if err != nil {
			return nil, time.Time{}, err
		}
		if open := worktime.OpenSession(df.Entries); open != nil {
			return open, day, nil
		}
	}
	return nil, time.Time{}, nil
}

// Punch records a clock-in or clock-out at the given instant.
//
// An "in" goes to the day of at. An "out" goes to the day record holding the
// open "in", even when at falls on a later calendar day. This keeps an
// overnight interval in one record with correctly dated timestamps, which is
// what worktime.Calculate expects.
func Punch(b Backend, kind model.EntryKind, at time.Time) (model.TimeEntry, time.Time, error) {
	open, openDay, err := FindOpenEntry(b, at)
	if err != nil {
		return model.TimeEntry{}, time.Time{}, err
	}

	entry := model.TimeEntry{ID: timecalc.GenerateID(at), Timestamp: at, Kind: kind}
	var day time.Time
	switch kind {
	case model.KindIn:
		if open != nil {
			return model.TimeEntry{}, time.Time{}, fmt.Errorf("%w since %s", ErrAlreadyClockedIn, open.Timestamp.Format("2006-01-02 15:04"))
		}
		day = timecalc.StartOfDay(at)
	case model.KindOut:
		if open == nil {
			return model.TimeEntry{}, time.Time{}, ErrNotClockedIn
		}
		if !at.After(open.Timestamp) {
			return model.TimeEntry{}, time.Time{}, ErrOutBeforeIn
		}
		day = openDay
	default:
		return model.TimeEntry{}, time.Time{}, fmt.Errorf("unknown punch kind %q", kind)
	}

	if err := AddEntry(b, day, entry); err != nil {
		return model.TimeEntry{}, time.Time{}, err
	}
	return entry, day, nil
}

// AddEntry replaces or appends a punch in the record for day.
func AddEntry(b Backend, day time.Time, entry model.TimeEntry) error {
	df, err := b.LoadDay(day)
	if err != nil {
		return err
	}
	for i, e := range df.Entries {
		if e.ID == entry.ID {
			df.Entries[i] = entry
			return b.SaveDay(day, df)
		}
	}
	df.Entries = append(df.Entries, entry)
	return b.SaveDay(day, df)
}

// RemoveEntry deletes the punch with the given id. It reports whether the
// punch existed.
func RemoveEntry(b Backend, day time.Time, id string) (bool, error) {
	df, err := b.LoadDay(day)
	if err != nil {
		return false, err
	}
	n := len(df.Entries)
	df.Entries = slices.DeleteFunc(df.Entries, func(e model.TimeEntry) bool { return e.ID == id })
	if len(df.Entries) == n {
		return false, nil
	}
	return true, b.SaveDay(day, df)
}

// SetDayInfo stores the plan for day.
func SetDayInfo(b Backend, day time.Time, info model.DayInfo) error {
	df, err := b.LoadDay(day)
	if err != nil {
		return err
	}
	df.Info = info
	return b.SaveDay(day, df)
}

// AddManualOvertime appends a manual overtime block to day, assigning an id
// if it has none.
func AddManualOvertime(b Backend, day time.Time, entry model.ManualOvertimeEntry) (model.ManualOvertimeEntry, error) {
	if !entry.Type.Valid() {
		return model.ManualOvertimeEntry{}, fmt.Errorf("%w: unknown type %q", ErrInvalidOvertime, entry.Type)
	}
	if !entry.ValidDuration() {
		return model.ManualOvertimeEntry{}, fmt.Errorf("%w: overtime duration must be between 1 and %d ms", ErrInvalidOvertime, model.MaxDurationMs)
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	df, err := b.LoadDay(day)
	if err != nil {
		return model.ManualOvertimeEntry{}, err
	}
	df.ManualOvertime = append(df.ManualOvertime, entry)
	if err := b.SaveDay(day, df); err != nil {
		return model.ManualOvertimeEntry{}, err
	}
	return entry, nil
}

// RemoveManualOvertime deletes the manual overtime block with the given id.
// It reports whether the block existed.
func RemoveManualOvertime(b Backend, day time.Time, id string) (bool, error) {
	df, err := b.LoadDay(day)
	if err != nil {
		return false, err
	}
	n := len(df.ManualOvertime)
	df.ManualOvertime = slices.DeleteFunc(df.ManualOvertime, func(m model.ManualOvertimeEntry) bool { return m.ID == id })
	if len(df.ManualOvertime) == n {
		return false, nil
	}
	return true, b.SaveDay(day, df)
}

// LoadRange loads the records of all days in [from, to] inclusive.
func LoadRange(b Backend, from, to time.Time) ([]model.DayFile, error) {
	var days []model.DayFile
	for d := timecalc.StartOfDay(from); !d.After(to); d = d.AddDate(0, 0, 1) {
		df, err := b.LoadDay(d)
		if err != nil {
			return nil, err
		}
		days = append(days, df)
	}
	return days, nil
}

// DayReport is a stored day together with its computed summary.
type DayReport struct {
	Day    time.Time
	File   model.DayFile
	Result worktime.Result
}

// SummarizeDay loads day and the following day's plan and runs the
// accounting engine over them.
func SummarizeDay(b Backend, day time.Time, settings model.WorkSettings) (DayReport, error) {
	day = timecalc.StartOfDay(day)
	df, err := b.LoadDay(day)
	if err != nil {
		return DayReport{}, err
	}
	next, err := b.LoadDay(timecalc.NextDay(day))
	if err != nil {
		return DayReport{}, err
	}
	res := worktime.Calculate(day, df.Entries, settings, df.Info, next.Info, df.ManualOvertime)
	return DayReport{Day: day, File: df, Result: res}, nil
}

// SummarizeRange returns a DayReport for every day in [from, to].
func SummarizeRange(b Backend, from, to time.Time, settings model.WorkSettings) ([]DayReport, error) {
	var out []DayReport
	for d := timecalc.StartOfDay(from); !d.After(to); d = d.AddDate(0, 0, 1) {
		r, err := SummarizeDay(b, d, settings)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
