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
	inAt  string
	outAt string
)

var inCmd = &cobra.Command{
	Use:   "in",
	Short: "Clock in",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPunch(model.KindIn, inAt)
	},
}

var outCmd = &cobra.Command{
	Use:   "out",
	Short: "Clock out of the open session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPunch(model.KindOut, outAt)
	},
}

func init() {
	inCmd.Flags().StringVar(&inAt, "at", "", "Clock-in time today (HH:MM) instead of now")
	outCmd.Flags().StringVar(&outAt, "at", "", "Clock-out time (HH:MM); a time not after the clock-in is taken on the next day")
}

// resolvePunchTime returns the instant a punch refers to. Without a clock
// value it is now. An "in" clock is read on today's date; an "out" clock on
// the date of the open session, rolling over to the next day when it would
// not be after the clock-in.
func resolvePunchTime(kind model.EntryKind, clock string, now time.Time, open *model.TimeEntry) (time.Time, error) {
	if clock == "" {
		return now, nil
	}
	if kind == model.KindOut && open != nil {
		return timecalc.ResolveClock(timecalc.StartOfDay(open.Timestamp.In(now.Location())), clock, open.Timestamp)
	}
	return timecalc.ResolveClock(timecalc.StartOfDay(now), clock, time.Time{})
}

func runPunch(kind model.EntryKind, clock string) error {
	now := time.Now()

	_, b := openBackend()
	defer b.Close()

	open, _, err := storage.FindOpenEntry(b, now)
	if err != nil {
		exitStorage(err)
	}

	at, err := resolvePunchTime(kind, clock, now, open)
	if err != nil {
		exitUsage("%v", err)
	}

	entry, _, err := storage.Punch(b, kind, at)
	switch {
	case errors.Is(err, storage.ErrAlreadyClockedIn),
		errors.Is(err, storage.ErrNotClockedIn),
		errors.Is(err, storage.ErrOutBeforeIn):
		exitUsage("%v", err)
	case err != nil:
		exitStorage(err)
	}

	if kind == model.KindIn {
		fmt.Printf("Clocked in at %s\n", entry.Timestamp.Format("2006-01-02 15:04"))
		return nil
	}
	fmt.Printf("Clocked out at %s. Session: %s\n",
		entry.Timestamp.Format("2006-01-02 15:04"), timecalc.FormatElapsed(entry.Timestamp.Sub(open.Timestamp)))
	return nil
}
