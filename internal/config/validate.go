package config

import (
	"fmt"

	"github.com/Tiliavir/work-time-tracker/internal/model"
)

// ValidationError reports the first invalid setting found by Validate.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func validHour(h int) bool { return h >= 0 && h <= 23 }

// Validate checks hour ranges, shift ids and the storage driver.
func (c Config) Validate() error {
	w := c.Work
	if w.StandardDayHours < 0 || w.StandardDayHours > 24 {
		return invalid("work.standard_day_hours", "must be between 0 and 24, got %g", w.StandardDayHours)
	}
	if !validHour(w.NightStartHour) {
		return invalid("work.night_start_hour", "must be between 0 and 23, got %d", w.NightStartHour)
	}
	if !validHour(w.NightEndHour) {
		return invalid("work.night_end_hour", "must be between 0 and 23, got %d", w.NightEndHour)
	}
	if w.AutoBreakThresholdHours < 0 {
		return invalid("work.auto_break_threshold_hours", "must not be negative")
	}
	if w.AutoBreakMinutes < 0 {
		return invalid("work.auto_break_minutes", "must not be negative")
	}
	if w.MealVoucherThresholdHours < 0 {
		return invalid("work.meal_voucher_threshold_hours", "must not be negative")
	}
	switch w.ExcessRule {
	case "", model.ExcessRuleExcess, model.ExcessRuleOvertime:
	default:
		return invalid("work.excess_rule", "must be %q or %q, got %q", model.ExcessRuleExcess, model.ExcessRuleOvertime, w.ExcessRule)
	}

	seen := make(map[string]bool, len(w.Shifts))
	for i, s := range w.Shifts {
		field := fmt.Sprintf("work.shifts[%d]", i)
		if s.ID == "" {
			return invalid(field+".id", "must not be empty")
		}
		if seen[s.ID] {
			return invalid(field+".id", "duplicate shift id %q", s.ID)
		}
		seen[s.ID] = true
		if s.StartHour != nil && !validHour(*s.StartHour) {
			return invalid(field+".start_hour", "must be between 0 and 23, got %d", *s.StartHour)
		}
		if s.EndHour != nil && !validHour(*s.EndHour) {
			return invalid(field+".end_hour", "must be between 0 and 23, got %d", *s.EndHour)
		}
	}

	switch c.Storage.Driver {
	case "", "files", "sqlite":
	default:
		return invalid("storage.driver", "must be \"files\" or \"sqlite\", got %q", c.Storage.Driver)
	}
	return nil
}
