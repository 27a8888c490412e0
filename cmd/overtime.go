package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/work-time-tracker/internal/model"
	"github.com/Tiliavir/work-time-tracker/internal/storage"
	"github.com/Tiliavir/work-time-tracker/internal/timecalc"
)

var (
	overtimeDate     string
	overtimeDuration string
	overtimeType     string
	overtimeNote     string
)

var overtimeCmd = &cobra.Command{
	Use:   "overtime",
	Short: "Manage manually declared overtime",
}

var overtimeAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Declare an overtime block",
	Args:  cobra.NoArgs,
	RunE:  runOvertimeAdd,
}

var overtimeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a day's declared overtime",
	Args:  cobra.NoArgs,
	RunE:  runOvertimeList,
}

var overtimeRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a declared overtime block",
	Args:  cobra.ExactArgs(1),
	RunE:  runOvertimeRm,
}

func init() {
	overtimeCmd.PersistentFlags().StringVar(&overtimeDate, "date", "", "Day (YYYY-MM-DD); defaults to today")
	overtimeAddCmd.Flags().StringVar(&overtimeDuration, "duration", "", "Length, e.g. 1h30m or 01:30")
	overtimeAddCmd.Flags().StringVar(&overtimeType, "type", string(model.OvertimeDiurnal), "diurnal, nocturnal, holiday or nocturnal_holiday")
	overtimeAddCmd.Flags().StringVar(&overtimeNote, "note", "", "Optional note")
	_ = overtimeAddCmd.MarkFlagRequired("duration")

	overtimeCmd.AddCommand(overtimeAddCmd)
	overtimeCmd.AddCommand(overtimeListCmd)
	overtimeCmd.AddCommand(overtimeRmCmd)
}

// parseOvertimeDuration accepts Go durations ("1h30m") and "HH:MM". The
// result must be positive and is truncated to the millisecond.
func parseOvertimeDuration(s string) (time.Duration, error) {
	var d time.Duration
	if strings.Contains(s, ":") {
		c, err := time.Parse("15:04", s)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
		d = time.Duration(c.Hour())*time.Hour + time.Duration(c.Minute())*time.Minute
	} else {
		var err error
		if d, err = time.ParseDuration(s); err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", s, err)
		}
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}
	return d.Truncate(time.Millisecond), nil
}

func runOvertimeAdd(cmd *cobra.Command, args []string) error {
	day := dayFlag(overtimeDate, time.Now())

	d, err := parseOvertimeDuration(overtimeDuration)
	if err != nil {
		exitUsage("%v", err)
	}
	typ := model.OvertimeType(overtimeType)
	if !typ.Valid() {
		exitUsage("invalid --type %q (want diurnal, nocturnal, holiday or nocturnal_holiday)", overtimeType)
	}

	_, b := openBackend()
	defer b.Close()

	entry, err := storage.AddManualOvertime(b, day, model.ManualOvertimeEntry{
		DurationMs: d.Milliseconds(),
		Type:       typ,
		Note:       overtimeNote,
	})
	if err != nil {
		exitStorage(err)
	}
	fmt.Printf("Added %s %s overtime on %s (id %s)\n",
		timecalc.FormatDurationHHMM(entry.Duration()), entry.Type, day.Format(timecalc.DateLayout), entry.ID)
	return nil
}

func runOvertimeList(cmd *cobra.Command, args []string) error {
	day := dayFlag(overtimeDate, time.Now())

	_, b := openBackend()
	defer b.Close()

	df, err := b.LoadDay(day)
	if err != nil {
		exitStorage(err)
	}
	if len(df.ManualOvertime) == 0 {
		fmt.Println("No overtime declared.")
		return nil
	}
	for _, m := range df.ManualOvertime {
		fmt.Printf("%s  %s  %-18s%s\n", m.ID, timecalc.FormatDurationHHMM(m.Duration()), m.Type, m.Note)
	}
	return nil
}

func runOvertimeRm(cmd *cobra.Command, args []string) error {
	day := dayFlag(overtimeDate, time.Now())

	_, b := openBackend()
	defer b.Close()

	removed, err := storage.RemoveManualOvertime(b, day, args[0])
	if err != nil {
		exitStorage(err)
	}
	if !removed {
		exitUsage("no overtime %s on %s", args[0], day.Format(timecalc.DateLayout))
	}
	fmt.Printf("Removed overtime %s\n", args[0])
	return nil
}
