package worktime

import (
	"encoding/json"
	"time"

	"github.com/Tiliavir/work-time-tracker/internal/model"
)

// DaySummary is the breakdown of one day's (or one interval's) work time.
// Every field is an exact multiple of a millisecond.
type DaySummary struct {
	TotalWork                time.Duration
	Standard                 time.Duration
	Excess                   time.Duration
	OvertimeDiurnal          time.Duration
	OvertimeNocturnal        time.Duration
	OvertimeHoliday          time.Duration
	OvertimeNocturnalHoliday time.Duration
	// NullHours is time worked before the scheduled shift start. It is not
	// part of TotalWork.
	NullHours     time.Duration
	BreakDeducted time.Duration
}

// Overtime returns the sum of the four overtime buckets.
func (s DaySummary) Overtime() time.Duration {
	return s.OvertimeDiurnal + s.OvertimeNocturnal + s.OvertimeHoliday + s.OvertimeNocturnalHoliday
}

// IsZero reports whether nothing at all was accounted.
func (s DaySummary) IsZero() bool {
	return s == DaySummary{}
}

func (s *DaySummary) add(o DaySummary) {
	s.TotalWork += o.TotalWork
	s.Standard += o.Standard
	s.Excess += o.Excess
	s.OvertimeDiurnal += o.OvertimeDiurnal
	s.OvertimeNocturnal += o.OvertimeNocturnal
	s.OvertimeHoliday += o.OvertimeHoliday
	s.OvertimeNocturnalHoliday += o.OvertimeNocturnalHoliday
	s.NullHours += o.NullHours
	s.BreakDeducted += o.BreakDeducted
}

// bucket returns the overtime field matching typ, or nil for unknown types.
func (s *DaySummary) bucket(typ model.OvertimeType) *time.Duration {
	switch typ {
	case model.OvertimeDiurnal:
		return &s.OvertimeDiurnal
	case model.OvertimeNocturnal:
		return &s.OvertimeNocturnal
	case model.OvertimeHoliday:
		return &s.OvertimeHoliday
	case model.OvertimeNocturnalHoliday:
		return &s.OvertimeNocturnalHoliday
	}
	return nil
}

// IntervalSummary is the breakdown of a single completed in/out pair.
type IntervalSummary struct {
	DaySummary
	Start          time.Time
	End            time.Time
	ClosingEntryID string
}

// Result is what Calculate returns.
type Result struct {
	Summary   DaySummary
	Intervals []IntervalSummary
	// Open is the trailing unmatched "in" punch, if any. It contributes
	// nothing to Summary.
	Open *model.TimeEntry
}

type summaryJSON struct {
	TotalWorkMs                int64 `json:"totalWorkMs"`
	StandardWorkMs             int64 `json:"standardWorkMs"`
	ExcessHoursMs              int64 `json:"excessHoursMs"`
	OvertimeDiurnalMs          int64 `json:"overtimeDiurnalMs"`
	OvertimeNocturnalMs        int64 `json:"overtimeNocturnalMs"`
	OvertimeHolidayMs          int64 `json:"overtimeHolidayMs"`
	OvertimeNocturnalHolidayMs int64 `json:"overtimeNocturnalHolidayMs"`
	NullHoursMs                int64 `json:"nullHoursMs"`
	BreakDeductedMs            int64 `json:"breakDeductedMs"`
}

func (s DaySummary) toJSON() summaryJSON {
	return summaryJSON{
		TotalWorkMs:                s.TotalWork.Milliseconds(),
		StandardWorkMs:             s.Standard.Milliseconds(),
		ExcessHoursMs:              s.Excess.Milliseconds(),
		OvertimeDiurnalMs:          s.OvertimeDiurnal.Milliseconds(),
		OvertimeNocturnalMs:        s.OvertimeNocturnal.Milliseconds(),
		OvertimeHolidayMs:          s.OvertimeHoliday.Milliseconds(),
		OvertimeNocturnalHolidayMs: s.OvertimeNocturnalHoliday.Milliseconds(),
		NullHoursMs:                s.NullHours.Milliseconds(),
		BreakDeductedMs:            s.BreakDeducted.Milliseconds(),
	}
}

// MarshalJSON renders durations as integer milliseconds.
func (s DaySummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.toJSON())
}

func (s IntervalSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		summaryJSON
		Start          time.Time `json:"start"`
		End            time.Time `json:"end"`
		ClosingEntryID string    `json:"closingEntryId"`
	}{s.DaySummary.toJSON(), s.Start, s.End, s.ClosingEntryID})
}

func (r Result) MarshalJSON() ([]byte, error) {
	intervals := r.Intervals
	if intervals == nil {
		intervals = []IntervalSummary{}
	}
	return json.Marshal(struct {
		Summary   DaySummary        `json:"summary"`
		Intervals []IntervalSummary `json:"intervals"`
		Open      *model.TimeEntry  `json:"open,omitempty"`
	}{r.Summary, intervals, r.Open})
}

// Total adds up the day summaries of several results.
func Total(results ...Result) DaySummary {
	var t DaySummary
	for _, r := range results {
		t.add(r.Summary)
	}
	return t
}
