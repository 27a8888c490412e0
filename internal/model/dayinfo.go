package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// DayKind discriminates the variants of DayInfo.
type DayKind string

const (
	DayUnplanned DayKind = ""
	DayShift     DayKind = "shift"
	DayLeave     DayKind = "leave"
)

// Common leave type tags. Any other tag is accepted as free text.
const (
	LeaveVacation = "vacation"
	LeavePermit   = "permit"
	LeaveSick     = "sick"
	LeaveHoliday  = "holiday"
)

// Leave describes an absence. Hours is set for partial-day leave only.
type Leave struct {
	Type  string   `json:"type"`
	Hours *float64 `json:"hours,omitempty"`
}

// DayInfo is the plan for one calendar day: unplanned, a shift, or a leave,
// plus an independent on-call flag. The zero value is an unplanned day.
//
// A day can never carry both a shift and a leave; use the constructors.
type DayInfo struct {
	kind    DayKind
	shiftID string
	leave   Leave
	onCall  bool
}

// Unplanned returns a day without shift or leave.
func Unplanned() DayInfo { return DayInfo{} }

// OnShift returns a day assigned to the shift with the given id.
// An empty id yields an unplanned day.
func OnShift(id string) DayInfo {
	if id == "" {
		return DayInfo{}
	}
	return DayInfo{kind: DayShift, shiftID: id}
}

// OnLeave returns a leave day.
func OnLeave(l Leave) DayInfo {
	if l.Type == "" {
		l.Type = LeaveVacation
	}
	return DayInfo{kind: DayLeave, leave: l}
}

// WithOnCall returns a copy of d with the on-call flag set to onCall.
func (d DayInfo) WithOnCall(onCall bool) DayInfo {
	d.onCall = onCall
	return d
}

func (d DayInfo) Kind() DayKind { return d.kind }
func (d DayInfo) OnCall() bool  { return d.onCall }

// ShiftID returns the planned shift id, if the day is a shift day.
func (d DayInfo) ShiftID() (string, bool) {
	return d.shiftID, d.kind == DayShift
}

// Leave returns the leave descriptor, if the day is a leave day.
func (d DayInfo) Leave() (Leave, bool) {
	return d.leave, d.kind == DayLeave
}

// IsLeave reports whether the day is a leave day.
func (d DayInfo) IsLeave() bool { return d.kind == DayLeave }

// Equal reports whether d and o describe the same plan.
func (d DayInfo) Equal(o DayInfo) bool {
	if d.kind != o.kind || d.onCall != o.onCall || d.shiftID != o.shiftID || d.leave.Type != o.leave.Type {
		return false
	}
	a, b := d.leave.Hours, o.leave.Hours
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

type dayInfoJSON struct {
	Kind    DayKind `json:"kind,omitempty"`
	ShiftID string  `json:"shift_id,omitempty"`
	Leave   *Leave  `json:"leave,omitempty"`
	OnCall  bool    `json:"on_call,omitempty"`
}

func (d DayInfo) MarshalJSON() ([]byte, error) {
	v := dayInfoJSON{Kind: d.kind, OnCall: d.onCall}
	switch d.kind {
	case DayShift:
		v.ShiftID = d.shiftID
	case DayLeave:
		l := d.leave
		v.Leave = &l
	}
	return json.Marshal(v)
}

// UnmarshalJSON decodes leniently: an unknown kind, or a kind whose payload
// is missing, decodes as an unplanned day.
func (d *DayInfo) UnmarshalJSON(data []byte) error {
	var v dayInfoJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch {
	case v.Kind == DayShift && v.ShiftID != "":
		*d = OnShift(v.ShiftID)
	case v.Kind == DayLeave && v.Leave != nil:
		*d = OnLeave(*v.Leave)
	default:
		*d = Unplanned()
	}
	d.onCall = v.OnCall
	return nil
}

// Describe renders the plan as a short label such as "shift N",
// "leave permit 4h" or "" for an unplanned day.
func (d DayInfo) Describe() string {
	if id, ok := d.ShiftID(); ok {
		return "shift " + id
	}
	if l, ok := d.Leave(); ok {
		if l.Hours != nil {
			return fmt.Sprintf("leave %s %sh", l.Type, strconv.FormatFloat(*l.Hours, 'f', -1, 64))
		}
		return "leave " + l.Type
	}
	return ""
}
