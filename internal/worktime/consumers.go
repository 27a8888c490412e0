package worktime

import "github.com/Tiliavir/work-time-tracker/internal/model"

// MealVoucherEligible reports whether the worked time of a day earns a meal
// voucher. A non-positive threshold disables vouchers.
func MealVoucherEligible(s DaySummary, thresholdHours float64) bool {
	threshold := hoursToDuration(thresholdHours)
	if threshold == 0 {
		return false
	}
	return s.TotalWork >= threshold
}

// LeaveTally counts the leave taken for one leave type.
type LeaveTally struct {
	FullDays int
	Hours    float64
}

// TallyLeave sums the leave days in infos by leave type. A leave without
// hours, or with at least standardDayHours, counts as a full day worth
// standardDayHours; a partial leave only adds its hours.
func TallyLeave(infos []model.DayInfo, standardDayHours float64) map[string]LeaveTally {
	out := map[string]LeaveTally{}
	for _, info := range infos {
		l, ok := info.Leave()
		if !ok {
			continue
		}
		t := out[l.Type]
		switch {
		case l.Hours == nil || (standardDayHours > 0 && *l.Hours >= standardDayHours):
			t.FullDays++
			t.Hours += max(standardDayHours, 0)
		case *l.Hours > 0:
			t.Hours += *l.Hours
		}
		out[l.Type] = t
	}
	return out
}
