package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/work-time-tracker/internal/storage"
	"github.com/Tiliavir/work-time-tracker/internal/timecalc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether you are clocked in and today's worked time",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	now := time.Now()

	cfg, b := openBackend()
	defer b.Close()

	open, openDay, err := storage.FindOpenEntry(b, now)
	if err != nil {
		exitStorage(err)
	}

	if open != nil {
		fmt.Println("Clocked in:")
		fmt.Printf("  Since: %s\n", open.Timestamp.Format("2006-01-02 15:04"))
		fmt.Printf("  Elapsed: %s\n", timecalc.FormatDurationHHMMSS(now.Sub(open.Timestamp)))
		if !timecalc.SameDay(openDay, now) {
			fmt.Printf("  Note: session started on %s\n", openDay.Format(timecalc.DateLayout))
		}
		return nil
	}

	rep, err := storage.SummarizeDay(b, now, cfg.Work)
	if err != nil {
		exitStorage(err)
	}

	fmt.Println("Not clocked in.")
	fmt.Printf("Today: %s worked.\n", timecalc.FormatDuration(rep.Result.Summary.TotalWork))
	return nil
}
