// Package worktime partitions a day's punches into ordinary, excess,
// overtime and null time according to configurable work rules.
//
// Calculate is pure: it performs no I/O, keeps no state and never fails.
// Malformed input (unpaired punches, empty or inverted intervals,
// non-positive settings) contributes nothing instead of raising an error.
//
// Beyond-standard time that is neither nocturnal nor on a holiday is booked
// according to WorkSettings.ExcessRule: as excess hours by default
// (model.ExcessRuleExcess) or as diurnal overtime (model.ExcessRuleOvertime).
package worktime

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/Tiliavir/work-time-tracker/internal/model"
)

// maxHours keeps hour settings well inside time.Duration's range.
const maxHours = 24 * 366 * 100

// DefaultExcessRule applies when WorkSettings.ExcessRule is empty or unknown.
const DefaultExcessRule = model.ExcessRuleExcess

// span is a completed in/out pair.
type span struct {
	start, end time.Time
	closingID  string
}

// Calculate summarizes the work done on date.
//
// entries are the raw punches of the day in any order. Overnight intervals
// must already carry an "out" timestamp on the following calendar day; no
// date rollover is inferred here. dayInfo and nextDayInfo are the plans for
// date and the day after; the latter only matters for holiday treatment of
// time past midnight. Manual overtime is added to its declared bucket as is.
func Calculate(
	date time.Time,
	entries []model.TimeEntry,
	settings model.WorkSettings,
	dayInfo, nextDayInfo model.DayInfo,
	manual []model.ManualOvertimeEntry,
) Result {
	c := newCalculator(date, settings, dayInfo, nextDayInfo)

	spans, open := pairEntries(entries)

	var res Result
	res.Open = open
	var raw time.Duration
	for _, sp := range spans {
		raw += sp.end.Sub(sp.start)
		res.Intervals = append(res.Intervals, c.classify(sp))
	}

	if brk := c.autoBreak(raw); brk > 0 {
		deductBreak(res.Intervals, brk)
	}

	for i := range res.Intervals {
		iv := &res.Intervals[i]
		iv.TotalWork = iv.Standard + iv.Excess + iv.Overtime()
		res.Summary.add(iv.DaySummary)
	}

	for _, m := range manual {
		d := m.Duration()
		b := res.Summary.bucket(m.Type)
		if b == nil || d <= 0 {
			continue
		}
		*b += d
		res.Summary.TotalWork += d
	}

	return res
}

// pairEntries sorts the punches and matches each "in" with the next "out".
// A repeated "in" while a session is open is ignored, as is an "out" without
// an open session. An "out" not after its "in" closes the session without
// producing an interval.
func pairEntries(entries []model.TimeEntry) ([]span, *model.TimeEntry) {
	sorted := slices.Clone(entries)
	for i := range sorted {
		sorted[i].Timestamp = sorted[i].Timestamp.Truncate(time.Millisecond)
	}
	slices.SortStableFunc(sorted, func(a, b model.TimeEntry) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		if a.Kind != b.Kind {
			if a.Kind == model.KindIn {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.ID, b.ID)
	})

	var spans []span
	var open *model.TimeEntry
	for i := range sorted {
		e := sorted[i]
		switch e.Kind {
		case model.KindIn:
			if open == nil {
				open = &e
			}
		case model.KindOut:
			if open == nil {
				continue
			}
			if e.Timestamp.After(open.Timestamp) {
				spans = append(spans, span{start: open.Timestamp, end: e.Timestamp, closingID: e.ID})
			}
			open = nil
		}
	}
	return spans, open
}

type calculator struct {
	nextMidnight time.Time
	shiftStart   *time.Time

	// budget is the ordinary time still available for the day.
	budget time.Duration

	nightStart, nightEnd int
	nightEmpty           bool

	dayHoliday, nextHoliday bool
	excessRule              model.ExcessRule

	autoBreakOn        bool
	autoBreakThreshold time.Duration
	autoBreakLength    time.Duration
}

func newCalculator(date time.Time, s model.WorkSettings, day, next model.DayInfo) *calculator {
	y, m, d := date.Date()
	loc := date.Location()

	c := &calculator{
		nextMidnight: time.Date(y, m, d+1, 0, 0, 0, 0, loc),
		budget:       hoursToDuration(s.StandardDayHours),
		nightStart:   s.NightStartHour,
		nightEnd:     s.NightEndHour,
		nightEmpty:   nightWindowEmpty(s.NightStartHour, s.NightEndHour),
		excessRule:   s.ExcessRule,

		autoBreakOn:        s.DeductAutoBreak && s.AutoBreakMinutes > 0,
		autoBreakThreshold: hoursToDuration(s.AutoBreakThresholdHours),
		autoBreakLength:    time.Duration(s.AutoBreakMinutes) * time.Minute,
	}
	if c.excessRule != model.ExcessRuleOvertime {
		c.excessRule = DefaultExcessRule
	}

	if IsHolidayOvertimeDay(day, next, s.TreatHolidayAsOvertime) {
		c.dayHoliday = day.IsLeave()
		c.nextHoliday = next.IsLeave()
	}
	// No ordinary time is owed on a holiday; everything worked is overtime.
	if c.dayHoliday {
		c.budget = 0
	}

	if id, ok := day.ShiftID(); ok {
		if sh, found := s.FindShift(id); found && sh.StartHour != nil && validHour(*sh.StartHour) {
			start := time.Date(y, m, d, *sh.StartHour, 0, 0, 0, loc)
			c.shiftStart = &start
		}
	}
	return c
}

// classify splits sp into homogeneous segments and allocates each one.
// It consumes the day's ordinary budget, so spans must arrive in order.
func (c *calculator) classify(sp span) IntervalSummary {
	iv := IntervalSummary{Start: sp.start, End: sp.end, ClosingEntryID: sp.closingID}

	from := sp.start
	for _, cut := range append(c.cuts(sp.start, sp.end), sp.end) {
		c.allocate(&iv.DaySummary, from, cut)
		from = cut
	}
	return iv
}

func (c *calculator) allocate(s *DaySummary, from, to time.Time) {
	d := to.Sub(from)
	if d <= 0 {
		return
	}
	if c.shiftStart != nil && from.Before(*c.shiftStart) {
		s.NullHours += d
		return
	}

	ordinary := min(d, c.budget)
	c.budget -= ordinary
	s.Standard += ordinary
	rest := d - ordinary
	if rest == 0 {
		return
	}

	night := IsNight(from, c.nightStart, c.nightEnd)
	holiday := c.dayHoliday
	if !from.Before(c.nextMidnight) {
		holiday = c.nextHoliday
	}

	switch {
	case night && holiday:
		s.OvertimeNocturnalHoliday += rest
	case night:
		s.OvertimeNocturnal += rest
	case holiday:
		s.OvertimeHoliday += rest
	case c.excessRule == model.ExcessRuleOvertime:
		s.OvertimeDiurnal += rest
	default:
		s.Excess += rest
	}
}

// cuts returns the instants strictly inside (start, end) where night status,
// holiday status or shift status may change, sorted and deduplicated.
func (c *calculator) cuts(start, end time.Time) []time.Time {
	var out []time.Time
	add := func(t time.Time) {
		if t.After(start) && t.Before(end) {
			out = append(out, t)
		}
	}

	add(c.nextMidnight)
	if c.shiftStart != nil {
		add(*c.shiftStart)
	}
	if !c.nightEmpty {
		loc := start.Location()
		y, m, d := start.Date()
		for day := time.Date(y, m, d, 0, 0, 0, 0, loc); day.Before(end); day = day.AddDate(0, 0, 1) {
			dy, dm, dd := day.Date()
			add(time.Date(dy, dm, dd, c.nightStart, 0, 0, 0, loc))
			add(time.Date(dy, dm, dd, c.nightEnd, 0, 0, 0, loc))
		}
	}

	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	return slices.CompactFunc(out, func(a, b time.Time) bool { return a.Equal(b) })
}

// autoBreak returns the break to deduct for a day with raw worked time.
func (c *calculator) autoBreak(raw time.Duration) time.Duration {
	if !c.autoBreakOn || raw <= c.autoBreakThreshold {
		return 0
	}
	return c.autoBreakLength
}

// deductBreak removes brk from the ordinary time of the last interval that
// has any, spilling backwards into earlier intervals. Buckets never go
// negative; whatever cannot be taken is dropped.
func deductBreak(intervals []IntervalSummary, brk time.Duration) {
	for i := len(intervals) - 1; i >= 0 && brk > 0; i-- {
		take := min(intervals[i].Standard, brk)
		intervals[i].Standard -= take
		intervals[i].BreakDeducted += take
		brk -= take
	}
}

// hoursToDuration converts fractional hours to a millisecond-exact duration.
// Non-positive and non-finite values yield zero.
func hoursToDuration(h float64) time.Duration {
	if !(h > 0) || math.IsInf(h, 0) {
		return 0
	}
	h = min(h, maxHours)
	return time.Duration(math.Round(h*float64(time.Hour/time.Millisecond))) * time.Millisecond
}

// OpenSession returns the "in" punch left without a matching "out" after
// pairing entries, or nil when every session is closed.
func OpenSession(entries []model.TimeEntry) *model.TimeEntry {
	_, open := pairEntries(entries)
	return open
}
