package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/work-time-tracker/internal/model"
	"github.com/Tiliavir/work-time-tracker/internal/storage"
	"github.com/Tiliavir/work-time-tracker/internal/timecalc"
	"github.com/Tiliavir/work-time-tracker/internal/worktime"
)

var dayDate string

var dayCmd = &cobra.Command{
	Use:   "day",
	Short: "Show a day's plan, intervals and time breakdown",
	Args:  cobra.NoArgs,
	RunE:  runDay,
}

func init() {
	dayCmd.Flags().StringVar(&dayDate, "date", "", "Day to show (YYYY-MM-DD); defaults to today")
}

func runDay(cmd *cobra.Command, args []string) error {
	day := dayFlag(dayDate, time.Now())

	cfg, b := openBackend()
	defer b.Close()

	rep, err := storage.SummarizeDay(b, day, cfg.Work)
	if err != nil {
		exitStorage(err)
	}
	printDay(os.Stdout, rep, cfg.Work)
	return nil
}

// printDay writes a day's plan, intervals and bucket breakdown to w.
func printDay(w io.Writer, rep storage.DayReport, settings model.WorkSettings) {
	header := rep.Day.Format(timecalc.DateLayout)
	if plan := rep.File.Info.Describe(); plan != "" {
		header += "  " + plan
	}
	if rep.File.Info.OnCall() {
		header += " (on call)"
	}
	fmt.Fprintln(w, header)

	res := rep.Result
	if len(res.Intervals) == 0 && res.Open == nil {
		fmt.Fprintln(w, "  No punches.")
	}
	for _, iv := range res.Intervals {
		fmt.Fprintf(w, "  %s–%s  (%s)\n", iv.Start.Format("15:04"), iv.End.Format("15:04"), timecalc.FormatDuration(iv.End.Sub(iv.Start)))
	}
	if res.Open != nil {
		fmt.Fprintf(w, "  %s–ongoing\n", res.Open.Timestamp.Format("15:04"))
	}

	for _, m := range rep.File.ManualOvertime {
		note := ""
		if m.Note != "" {
			note = "  " + m.Note
		}
		fmt.Fprintf(w, "  + %s %s overtime%s\n", timecalc.FormatDurationHHMM(m.Duration()), m.Type, note)
	}

	fmt.Fprintln(w, "--------------------------------")
	printBuckets(w, res.Summary)
	if worktime.MealVoucherEligible(res.Summary, settings.MealVoucherThresholdHours) {
		fmt.Fprintln(w, "Meal voucher: yes")
	}
}

// printBuckets writes the non-empty buckets of s, one per line, with the
// total always shown.
func printBuckets(w io.Writer, s worktime.DaySummary) {
	rows := []struct {
		label string
		d     time.Duration
	}{
		{"Standard", s.Standard},
		{"Excess", s.Excess},
		{"OT diurnal", s.OvertimeDiurnal},
		{"OT nocturnal", s.OvertimeNocturnal},
		{"OT holiday", s.OvertimeHoliday},
		{"OT noct. holiday", s.OvertimeNocturnalHoliday},
		{"Null (pre-shift)", s.NullHours},
		{"Break deducted", s.BreakDeducted},
	}
	for _, r := range rows {
		if r.d != 0 {
			fmt.Fprintf(w, "%-20s%s\n", r.label, timecalc.FormatDurationHHMM(r.d))
		}
	}
	fmt.Fprintf(w, "%-20s%s\n", "Total", timecalc.FormatDurationHHMM(s.TotalWork))
}
