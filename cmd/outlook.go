package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/work-time-tracker/internal/msgraph"
	"github.com/Tiliavir/work-time-tracker/internal/timecalc"
)

var (
	outlookSyncFrom   string
	outlookSyncTo     string
	outlookSyncDate   string
	outlookSyncDryRun bool
	outlookSyncTZ     string
)

var outlookCmd = &cobra.Command{
	Use:   "outlook",
	Short: "Outlook calendar integration",
}

var outlookSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Import shifts and out-of-office days from the Outlook calendar",
	Long: `Import day plans from Outlook. Out-of-office events become vacation days
for every day they cover; events titled with a shift id or name from the
config plan that shift. Cancelled, private and free events are ignored.`,
	Args: cobra.NoArgs,
	RunE: runOutlookSync,
}

func init() {
	outlookSyncCmd.Flags().StringVar(&outlookSyncFrom, "from", "", "Start date (YYYY-MM-DD); required when --to is specified")
	outlookSyncCmd.Flags().StringVar(&outlookSyncTo, "to", "", "End date (YYYY-MM-DD); defaults to today")
	outlookSyncCmd.Flags().StringVar(&outlookSyncDate, "date", "", "Sync a specific date (YYYY-MM-DD)")
	outlookSyncCmd.Flags().BoolVar(&outlookSyncDryRun, "dry-run", false, "Print planned operations without writing")
	outlookSyncCmd.Flags().StringVar(&outlookSyncTZ, "timezone", "", "IANA timezone for event times (e.g. Europe/Rome)")
	outlookCmd.AddCommand(outlookSyncCmd)
}

// syncRange resolves the --date/--from/--to flags to an inclusive range.
func syncRange(date, fromFlag, toFlag string, now time.Time) (time.Time, time.Time, error) {
	switch {
	case date != "":
		d, err := timecalc.ParseDate(date, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return d, timecalc.EndOfDay(d), nil

	case fromFlag != "" || toFlag != "":
		if fromFlag == "" {
			return time.Time{}, time.Time{}, fmt.Errorf("--from is required when --to is specified")
		}
		from, err := timecalc.ParseDate(fromFlag, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to := timecalc.EndOfDay(now)
		if toFlag != "" {
			t, err := timecalc.ParseDate(toFlag, now.Location())
			if err != nil {
				return time.Time{}, time.Time{}, err
			}
			to = timecalc.EndOfDay(t)
		}
		if to.Before(from) {
			return time.Time{}, time.Time{}, fmt.Errorf("--to must not be before --from")
		}
		return from, to, nil

	default:
		return timecalc.StartOfDay(now), timecalc.EndOfDay(now), nil
	}
}

func runOutlookSync(cmd *cobra.Command, args []string) error {
	from, to, err := syncRange(outlookSyncDate, outlookSyncFrom, outlookSyncTo, time.Now())
	if err != nil {
		exitUsage("%v", err)
	}

	cfg, b := openBackend()
	defer b.Close()

	timezone := outlookSyncTZ
	if timezone == "" {
		timezone = cfg.Outlook.Timezone
	}

	dryTag := ""
	if outlookSyncDryRun {
		dryTag = " [dry-run]"
	}
	fmt.Printf("Syncing Outlook plans (%s → %s)%s...\n",
		from.Format(timecalc.DateLayout), to.Format(timecalc.DateLayout), dryTag)
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	tokenPath, err := msgraph.DefaultTokenPath()
	if err != nil {
		exitStorage(err)
	}
	store := msgraph.TokenFile{Path: tokenPath}

	tok, oauthCfg, err := msgraph.Authenticate(ctx, store, cfg.Outlook.TenantID, cfg.Outlook.ClientID, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Authentication failed: %v\n", err)
		exit(1)
	}

	client := msgraph.NewClient(ctx, tok, oauthCfg, store)

	// calendarView's end is exclusive.
	events, err := client.GetCalendarView(ctx, from, timecalc.NextDay(to), timezone)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to fetch calendar events: %v\n", err)
		exit(1)
	}

	opts := msgraph.SyncOptions{
		Backend: b,
		Shifts:  cfg.Work.Shifts,
		DryRun:  outlookSyncDryRun,
		Out:     os.Stdout,
	}

	result, err := msgraph.SyncEvents(events, opts, timezone)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sync error: %v\n", err)
		exit(1)
	}

	fmt.Println()
	fmt.Println("Summary:")
	fmt.Printf("  %d imported\n", result.Imported)
	fmt.Printf("  %d skipped\n", result.Skipped)
	fmt.Printf("  %d updated\n", result.Updated)
	if result.Errors > 0 {
		fmt.Printf("  %d errors\n", result.Errors)
		exit(2)
	}
	return nil
}
