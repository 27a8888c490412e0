package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/work-time-tracker/internal/config"
	"github.com/Tiliavir/work-time-tracker/internal/logging"
	"github.com/Tiliavir/work-time-tracker/internal/storage"
	"github.com/Tiliavir/work-time-tracker/internal/timecalc"
)

var (
	logLevel   string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "wtt",
	Short: "Work Time Tracker – clock in/out, shifts, leave and overtime",
	Long: `wtt records clock-in/clock-out punches, shift and leave plans and manual
overtime, and splits each day into ordinary, excess, overtime and null time.
Data is stored in ~/.wtt/ as JSON day files or in a SQLite database.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Setup(os.Stderr, false)
		return logging.SetLevel(logLevel, logging.Level)
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.wtt/config.json)")

	rootCmd.AddCommand(inCmd)
	rootCmd.AddCommand(outCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(dayCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(overtimeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(outlookCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(remindCmd)
}

// opened is the backend of the running command. It is closed before the
// process exits early, since os.Exit skips deferred calls.
var opened storage.Backend

var osExit = os.Exit

// exit closes the open backend, if any, and ends the process with code.
func exit(code int) {
	if opened != nil {
		if err := opened.Close(); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		opened = nil
	}
	osExit(code)
}

// exitUsage reports a usage problem and exits with status 1.
func exitUsage(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	exit(1)
}

// exitStorage reports a storage or I/O failure and exits with status 2.
func exitStorage(err error) {
	fmt.Fprintln(os.Stderr, err)
	exit(2)
}

// loadConfig reads the config file, exiting on a broken file.
func loadConfig() config.Config {
	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		exitUsage("%v", err)
	}
	return cfg
}

// openBackend loads the config and opens the configured storage backend.
// Callers must Close the backend.
func openBackend() (config.Config, storage.Backend) {
	cfg := loadConfig()
	b, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Path, cfg.Storage.User)
	if err != nil {
		exitStorage(err)
	}
	opened = b
	return cfg, b
}

// dayFlag parses a --date value, defaulting to today.
func dayFlag(value string, now time.Time) time.Time {
	if value == "" {
		return timecalc.StartOfDay(now)
	}
	d, err := timecalc.ParseDate(value, now.Location())
	if err != nil {
		exitUsage("invalid --date value: %v", err)
	}
	return d
}
