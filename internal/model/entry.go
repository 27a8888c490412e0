package model

import (
	"math"
	"time"
)

// EntryKind tells whether a punch opens or closes a work session.
type EntryKind string

const (
	KindIn  EntryKind = "in"
	KindOut EntryKind = "out"
)

// TimeEntry represents a single clock-in or clock-out punch.
type TimeEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      EntryKind `json:"kind"`
}

// OvertimeType is the category a manual overtime block is booked into.
type OvertimeType string

const (
	OvertimeDiurnal          OvertimeType = "diurnal"
	OvertimeNocturnal        OvertimeType = "nocturnal"
	OvertimeHoliday          OvertimeType = "holiday"
	OvertimeNocturnalHoliday OvertimeType = "nocturnal_holiday"
)

// Valid reports whether t is one of the four known categories.
func (t OvertimeType) Valid() bool {
	switch t {
	case OvertimeDiurnal, OvertimeNocturnal, OvertimeHoliday, OvertimeNocturnalHoliday:
		return true
	}
	return false
}

// ManualOvertimeEntry is overtime declared by the user rather than derived
// from punches.
type ManualOvertimeEntry struct {
	ID         string       `json:"id"`
	DurationMs int64        `json:"duration_ms"`
	Type       OvertimeType `json:"type"`
	Note       string       `json:"note,omitempty"`
}

// MaxDurationMs is the longest manual overtime a time.Duration can hold.
const MaxDurationMs = math.MaxInt64 / int64(time.Millisecond)

// ValidDuration reports whether DurationMs is positive and representable.
func (m ManualOvertimeEntry) ValidDuration() bool {
	return m.DurationMs > 0 && m.DurationMs <= MaxDurationMs
}

// Duration returns the entry's length as a time.Duration, or zero when
// DurationMs is not a valid duration.
func (m ManualOvertimeEntry) Duration() time.Duration {
	if !m.ValidDuration() {
		return 0
	}
	return time.Duration(m.DurationMs) * time.Millisecond
}

// DayFile is the top-level record stored for each calendar day.
type DayFile struct {
	Date           string                `json:"date"`
	Entries        []TimeEntry           `json:"entries"`
	Info           DayInfo               `json:"info"`
	ManualOvertime []ManualOvertimeEntry `json:"manual_overtime"`
}
