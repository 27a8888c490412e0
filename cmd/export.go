package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/work-time-tracker/internal/export"
	"github.com/Tiliavir/work-time-tracker/internal/storage"
	"github.com/Tiliavir/work-time-tracker/internal/timecalc"
)

var (
	exportFrom   string
	exportTo     string
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export per-day summaries to stdout",
	Long: `Export one record per day with its plan and time breakdown. Without
--from/--to the current week is exported.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "First day (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "Last day (YYYY-MM-DD); defaults to today when --from is set")
	exportCmd.Flags().StringVar(&exportFormat, "format", export.FormatCSV, "Output format: csv, json, yaml")
}

func runExport(cmd *cobra.Command, args []string) error {
	now := time.Now()

	from, to := timecalc.WeekRange(now)
	if exportFrom != "" || exportTo != "" {
		if exportFrom == "" {
			exitUsage("--from is required when --to is specified")
		}
		from = dayFlag(exportFrom, now)
		to = timecalc.EndOfDay(dayFlag(exportTo, now))
		if to.Before(from) {
			exitUsage("--to must not be before --from")
		}
	}

	cfg, b := openBackend()
	defer b.Close()

	days, err := storage.SummarizeRange(b, from, to, cfg.Work)
	if err != nil {
		exitStorage(err)
	}

	if err := export.Write(os.Stdout, exportFormat, export.Records(days, cfg.Work)); err != nil {
		exitUsage("%v", err)
	}
	return nil
}
