package model

// ExcessRule decides where beyond-standard time goes when it is neither
// nocturnal nor on a holiday.
type ExcessRule string

const (
	// ExcessRuleExcess books it as excess hours (the default).
	ExcessRuleExcess ExcessRule = "excess"
	// ExcessRuleOvertime books it as diurnal overtime.
	ExcessRuleOvertime ExcessRule = "overtime"
)

// Shift is one row of the shift table. A shift with neither StartHour nor
// EndHour is a rest day.
type Shift struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartHour *int   `json:"start_hour"`
	EndHour   *int   `json:"end_hour"`
}

// IsRest reports whether the shift has no time bounds.
func (s Shift) IsRest() bool {
	return s.StartHour == nil && s.EndHour == nil
}

// WorkSettings is the rule configuration used by the accounting engine.
type WorkSettings struct {
	StandardDayHours          float64    `json:"standard_day_hours"`
	NightStartHour            int        `json:"night_start_hour"`
	NightEndHour              int        `json:"night_end_hour"`
	TreatHolidayAsOvertime    bool       `json:"treat_holiday_as_overtime"`
	DeductAutoBreak           bool       `json:"deduct_auto_break"`
	AutoBreakThresholdHours   float64    `json:"auto_break_threshold_hours"`
	AutoBreakMinutes          int        `json:"auto_break_minutes"`
	ExcessRule                ExcessRule `json:"excess_rule"`
	MealVoucherThresholdHours float64    `json:"meal_voucher_threshold_hours"`
	Shifts                    []Shift    `json:"shifts"`
}

// FindShift looks up a shift by id.
func (w WorkSettings) FindShift(id string) (Shift, bool) {
	for _, s := range w.Shifts {
		if s.ID == id {
			return s, true
		}
	}
	return Shift{}, false
}
