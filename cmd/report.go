package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/work-time-tracker/internal/model"
	"github.com/Tiliavir/work-time-tracker/internal/storage"
	"github.com/Tiliavir/work-time-tracker/internal/timecalc"
	"github.com/Tiliavir/work-time-tracker/internal/worktime"
)

var (
	reportWeek   bool
	reportMonth  bool
	reportDate   string
	reportFormat string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the time breakdown of a week or month",
	Args:  cobra.NoArgs,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportWeek, "week", false, "Report for the week (default)")
	reportCmd.Flags().BoolVar(&reportMonth, "month", false, "Report for the month")
	reportCmd.Flags().StringVar(&reportDate, "date", "", "Any day of the period (YYYY-MM-DD); defaults to today")
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, csv, json")
	reportCmd.MarkFlagsMutuallyExclusive("week", "month")
}

// periodReport is the aggregate of a range of days.
type periodReport struct {
	Label        string                         `json:"period"`
	Days         []storage.DayReport            `json:"-"`
	Totals       worktime.DaySummary            `json:"totals"`
	MealVouchers int                            `json:"mealVouchers"`
	Leave        map[string]worktime.LeaveTally `json:"leave"`
}

func buildReport(label string, days []storage.DayReport, settings model.WorkSettings) periodReport {
	rep := periodReport{Label: label, Days: days}
	infos := make([]model.DayInfo, 0, len(days))
	results := make([]worktime.Result, 0, len(days))
	for _, d := range days {
		results = append(results, d.Result)
		infos = append(infos, d.File.Info)
		if worktime.MealVoucherEligible(d.Result.Summary, settings.MealVoucherThresholdHours) {
			rep.MealVouchers++
		}
	}
	rep.Totals = worktime.Total(results...)
	rep.Leave = worktime.TallyLeave(infos, settings.StandardDayHours)
	return rep
}

func runReport(cmd *cobra.Command, args []string) error {
	ref := dayFlag(reportDate, time.Now())

	from, to := timecalc.WeekRange(ref)
	label := timecalc.ISOWeekLabel(ref)
	if reportMonth {
		from, to = timecalc.MonthRange(ref)
		label = ref.Format("2006-01")
	}

	cfg, b := openBackend()
	defer b.Close()

	days, err := storage.SummarizeRange(b, from, to, cfg.Work)
	if err != nil {
		exitStorage(err)
	}

	if err := printReport(os.Stdout, reportFormat, buildReport(label, days, cfg.Work)); err != nil {
		exitUsage("%v", err)
	}
	return nil
}

func printReport(w io.Writer, format string, rep periodReport) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case "csv":
		cw := csv.NewWriter(w)
		_ = cw.Write([]string{"bucket", "hours"})
		for _, r := range bucketRows(rep.Totals) {
			_ = cw.Write([]string{r.label, timecalc.FormatDurationHHMM(r.d)})
		}
		_ = cw.Write([]string{"meal_vouchers", strconv.Itoa(rep.MealVouchers)})
		cw.Flush()
		return cw.Error()
	case "md":
		printReportMarkdown(w, rep)
		return nil
	default:
		return fmt.Errorf("unknown report format %q (want md, csv or json)", format)
	}
}

type bucketRow struct {
	label string
	d     time.Duration
}

func bucketRows(s worktime.DaySummary) []bucketRow {
	return []bucketRow{
		{"total", s.TotalWork},
		{"standard", s.Standard},
		{"excess", s.Excess},
		{"overtime_diurnal", s.OvertimeDiurnal},
		{"overtime_nocturnal", s.OvertimeNocturnal},
		{"overtime_holiday", s.OvertimeHoliday},
		{"overtime_nocturnal_holiday", s.OvertimeNocturnalHoliday},
		{"null", s.NullHours},
		{"break_deducted", s.BreakDeducted},
	}
}

func printReportMarkdown(w io.Writer, rep periodReport) {
	fmt.Fprintf(w, "Period %s\n\n", rep.Label)
	fmt.Fprintln(w, "| Date       | Plan            | Total | Std   | Excess | OT    | Null  |")
	fmt.Fprintln(w, "|------------|-----------------|-------|-------|--------|-------|-------|")
	for _, d := range rep.Days {
		s := d.Result.Summary
		if s.IsZero() && d.File.Info.Kind() == model.DayUnplanned {
			continue
		}
		fmt.Fprintf(w, "| %s | %-15s | %s | %s | %s  | %s | %s |\n",
			d.Day.Format(timecalc.DateLayout),
			d.File.Info.Describe(),
			timecalc.FormatDurationHHMM(s.TotalWork),
			timecalc.FormatDurationHHMM(s.Standard),
			timecalc.FormatDurationHHMM(s.Excess),
			timecalc.FormatDurationHHMM(s.Overtime()),
			timecalc.FormatDurationHHMM(s.NullHours),
		)
	}
	fmt.Fprintln(w)
	printBuckets(w, rep.Totals)
	fmt.Fprintf(w, "%-20s%d\n", "Meal vouchers", rep.MealVouchers)

	if len(rep.Leave) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Leave:")
	types := make([]string, 0, len(rep.Leave))
	for t := range rep.Leave {
		types = append(types, t)
	}
	slices.Sort(types)
	for _, t := range types {
		l := rep.Leave[t]
		fmt.Fprintf(w, "  %-18s%d day(s), %sh\n", t, l.FullDays, strconv.FormatFloat(l.Hours, 'f', -1, 64))
	}
}
