package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/work-time-tracker/internal/reminder"
	"github.com/Tiliavir/work-time-tracker/internal/timecalc"
)

var remindLead time.Duration

var remindCmd = &cobra.Command{
	Use:   "remind",
	Short: "Remind about today's shift start and end until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runRemind,
}

func init() {
	remindCmd.Flags().DurationVar(&remindLead, "lead", 15*time.Minute, "How long before the shift start/end to remind")
}

func runRemind(cmd *cobra.Command, args []string) error {
	now := time.Now()
	today := timecalc.StartOfDay(now)

	cfg, b := openBackend()
	df, err := b.LoadDay(today)
	b.Close()
	if err != nil {
		exitStorage(err)
	}

	reminders := reminder.ShiftReminders(today, df.Info, cfg.Work, remindLead)
	var upcoming []reminder.Reminder
	for _, r := range reminders {
		if r.At.After(now) {
			upcoming = append(upcoming, r)
		}
	}
	if len(upcoming) == 0 {
		fmt.Println("No upcoming shift reminders for today.")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fired := make(chan reminder.Reminder)
	s := reminder.New(func(r reminder.Reminder) {
		select {
		case fired <- r:
		case <-ctx.Done():
		}
	})
	defer s.CancelAll()

	for _, r := range upcoming {
		s.Schedule(r.At, r.Message)
		fmt.Printf("Scheduled %s: %s\n", r.At.Format("15:04"), r.Message)
	}

	for remaining := len(upcoming); remaining > 0; remaining-- {
		select {
		case r := <-fired:
			fmt.Printf("\a[%s] %s\n", time.Now().Format("15:04"), r.Message)
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}
