package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/work-time-tracker/internal/model"
	"github.com/Tiliavir/work-time-tracker/internal/storage"
	"github.com/Tiliavir/work-time-tracker/internal/timecalc"
)

var (
	planDate   string
	planShift  string
	planLeave  string
	planHours  float64
	planClear  bool
	planOnCall bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan a shift or leave for a day",
	Long: `Plan a day as a shift, a leave or nothing. A day holds either a shift or a
leave; setting one replaces the other. --on-call alone changes only the
on-call flag and keeps the existing plan.`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planDate, "date", "", "Day to plan (YYYY-MM-DD); defaults to today")
	planCmd.Flags().StringVar(&planShift, "shift", "", "Shift id from the config shift table")
	planCmd.Flags().StringVar(&planLeave, "leave", "", "Leave type: vacation, permit, sick, holiday or free text")
	planCmd.Flags().Float64Var(&planHours, "hours", 0, "Hours of a partial-day leave")
	planCmd.Flags().BoolVar(&planClear, "clear", false, "Remove the plan")
	planCmd.Flags().BoolVar(&planOnCall, "on-call", false, "Mark the day as on call")
	planCmd.MarkFlagsMutuallyExclusive("shift", "leave", "clear")
}

// planRequest is what the plan flags ask for.
type planRequest struct {
	shift    string
	leave    string
	hours    *float64
	clear    bool
	onCall   *bool
	existing model.DayInfo
}

// buildDayInfo turns a plan request into the DayInfo to store.
func buildDayInfo(req planRequest, settings model.WorkSettings) (model.DayInfo, error) {
	var info model.DayInfo
	switch {
	case req.shift != "":
		if _, ok := settings.FindShift(req.shift); !ok {
			return model.DayInfo{}, fmt.Errorf("unknown shift %q", req.shift)
		}
		info = model.OnShift(req.shift)
	case req.leave != "":
		if req.hours != nil && *req.hours <= 0 {
			return model.DayInfo{}, errors.New("--hours must be positive")
		}
		info = model.OnLeave(model.Leave{Type: req.leave, Hours: req.hours})
	case req.clear:
		info = model.Unplanned()
	case req.onCall != nil:
		info = req.existing
	default:
		return model.DayInfo{}, errors.New("one of --shift, --leave, --clear or --on-call is required")
	}
	if req.hours != nil && req.leave == "" {
		return model.DayInfo{}, errors.New("--hours only applies to --leave")
	}

	onCall := req.existing.OnCall()
	if req.onCall != nil {
		onCall = *req.onCall
	}
	return info.WithOnCall(onCall), nil
}

func runPlan(cmd *cobra.Command, args []string) error {
	day := dayFlag(planDate, time.Now())

	cfg, b := openBackend()
	defer b.Close()

	df, err := b.LoadDay(day)
	if err != nil {
		exitStorage(err)
	}

	req := planRequest{shift: planShift, leave: planLeave, clear: planClear, existing: df.Info}
	if cmd.Flags().Changed("hours") {
		req.hours = &planHours
	}
	if cmd.Flags().Changed("on-call") {
		req.onCall = &planOnCall
	}

	info, err := buildDayInfo(req, cfg.Work)
	if err != nil {
		exitUsage("%v", err)
	}

	if err := storage.SetDayInfo(b, day, info); err != nil {
		exitStorage(err)
	}

	label := info.Describe()
	if label == "" {
		label = "unplanned"
	}
	if info.OnCall() {
		label += " (on call)"
	}
	fmt.Printf("%s: %s\n", day.Format(timecalc.DateLayout), label)
	return nil
}
