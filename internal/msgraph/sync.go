package msgraph

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Tiliavir/work-time-tracker/internal/model"
	"github.com/Tiliavir/work-time-tracker/internal/storage"
	"github.com/Tiliavir/work-time-tracker/internal/timecalc"
)

// SyncResult holds counters for a sync operation.
type SyncResult struct {
	Imported int
	Skipped  int
	Updated  int
	Errors   int
}

// SyncOptions configures a sync run.
type SyncOptions struct {
	Backend storage.Backend
	Shifts  []model.Shift
	DryRun  bool
	// Out receives one progress line per planned day. Nil discards them.
	Out io.Writer
}

// DayPlan is the plan an event asks for on one calendar day.
type DayPlan struct {
	Day  time.Time
	Info model.DayInfo
}

// parseGraphTime parses a Graph API dateTime string in the given timezone.
// Graph returns times like "2026-02-27T09:00:00.0000000" without a zone suffix
// when a Prefer: outlook.timezone header is set.
func parseGraphTime(dt, tz string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, dt); err == nil {
		return t, nil
	}

	loc := time.UTC
	if tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}

	for _, layout := range []string{
		"2006-01-02T15:04:05.0000000",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, dt, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse graph time %q", dt)
}

// shouldSkip returns true if the event can never yield a plan.
func shouldSkip(event CalendarEvent) bool {
	switch {
	case event.IsCancelled:
		return true
	case event.Sensitivity == "private":
		return true
	case event.ShowAs == "free":
		return true
	case event.Start.DateTime == "" || event.End.DateTime == "":
		return true
	}
	return false
}

// matchShift finds the shift whose id or name equals the event subject,
// ignoring case and surrounding space.
func matchShift(subject string, shifts []model.Shift) (model.Shift, bool) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return model.Shift{}, false
	}
	for _, s := range shifts {
		if strings.EqualFold(subject, s.ID) || (s.Name != "" && strings.EqualFold(subject, s.Name)) {
			return s, true
		}
	}
	return model.Shift{}, false
}

// MapEventToPlans converts a calendar event into day plans.
//
// An out-of-office event becomes a vacation day for every calendar day it
// covers. An event titled like a configured shift plans that shift on its
// start day. Anything else maps to no plans.
func MapEventToPlans(event CalendarEvent, timezone string, shifts []model.Shift) ([]DayPlan, error) {
	start, err := parseGraphTime(event.Start.DateTime, timezone)
	if err != nil {
		return nil, fmt.Errorf("parsing start time: %w", err)
	}
	end, err := parseGraphTime(event.End.DateTime, timezone)
	if err != nil {
		return nil, fmt.Errorf("parsing end time: %w", err)
	}

	if event.ShowAs == "oof" {
		if !end.After(start) {
			return nil, nil
		}
		var plans []DayPlan
		leave := model.OnLeave(model.Leave{Type: model.LeaveVacation})
		for d := timecalc.StartOfDay(start); d.Before(end); d = timecalc.NextDay(d) {
			plans = append(plans, DayPlan{Day: d, Info: leave})
		}
		return plans, nil
	}

	if sh, ok := matchShift(event.Subject, shifts); ok {
		return []DayPlan{{Day: timecalc.StartOfDay(start), Info: model.OnShift(sh.ID)}}, nil
	}
	return nil, nil
}

// SyncEvents maps events to day plans and stores them. A day whose plan
// already matches is skipped; a day with a different plan is updated. The
// on-call flag of an existing plan is kept.
func SyncEvents(events []CalendarEvent, opts SyncOptions, timezone string) (SyncResult, error) {
	var result SyncResult
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	for _, event := range events {
		if shouldSkip(event) {
			continue
		}

		plans, err := MapEventToPlans(event, timezone, opts.Shifts)
		if err != nil {
			fmt.Fprintf(out, "  ! Error mapping event %q: %v\n", event.Subject, err)
			result.Errors++
			continue
		}

		for _, p := range plans {
			date := p.Day.Format(timecalc.DateLayout)
			existing, err := opts.Backend.LoadDay(p.Day)
			if err != nil {
				fmt.Fprintf(out, "  ! Error loading %s for %q: %v\n", date, event.Subject, err)
				result.Errors++
				continue
			}

			previous := existing.Info
			info := p.Info.WithOnCall(previous.OnCall())
			if previous.Equal(info) {
				fmt.Fprintf(out, "  – Skipped:  %s %s (already planned)\n", date, event.Subject)
				result.Skipped++
				continue
			}

			if !opts.DryRun {
				existing.Info = info
				if err := opts.Backend.SaveDay(p.Day, existing); err != nil {
					fmt.Fprintf(out, "  ! Error saving %s for %q: %v\n", date, event.Subject, err)
					result.Errors++
					continue
				}
			}

			if previous.Kind() != model.DayUnplanned {
				fmt.Fprintf(out, "  ↑ Updated:  %s %s\n", date, info.Describe())
				result.Updated++
				continue
			}
			fmt.Fprintf(out, "  ✓ Imported: %s %s\n", date, info.Describe())
			result.Imported++
		}
	}

	return result, nil
}
