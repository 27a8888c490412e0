package worktime

import (
	"time"

	"github.com/Tiliavir/work-time-tracker/internal/model"
)

// IsNight reports whether t falls inside the night window [startHour,
// endHour) evaluated on t's local hour. When startHour > endHour the window
// wraps past midnight (e.g. 22..6). Equal hours denote an empty window, and
// hours outside 0..23 never match.
func IsNight(t time.Time, startHour, endHour int) bool {
	if !validHour(startHour) || !validHour(endHour) {
		return false
	}
	h := t.Hour()
	if startHour <= endHour {
		return h >= startHour && h < endHour
	}
	return h >= startHour || h < endHour
}

// IsHolidayOvertimeDay reports whether holiday overtime rules apply to a day.
// The next day counts too, since late-night work can spill into it.
func IsHolidayOvertimeDay(day, next model.DayInfo, treatHolidayAsOvertime bool) bool {
	if !treatHolidayAsOvertime {
		return false
	}
	return day.IsLeave() || next.IsLeave()
}

func validHour(h int) bool {
	return h >= 0 && h <= 23
}

// nightWindowEmpty is true when IsNight can never return true.
func nightWindowEmpty(startHour, endHour int) bool {
	return !validHour(startHour) || !validHour(endHour) || startHour == endHour
}
