package cmd

import (
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/work-time-tracker/internal/logging"
	"github.com/Tiliavir/work-time-tracker/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, 127.0.0.1:8087)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// The API logs JSON to stdout, keeping the level chosen with --log-level.
	logging.Setup(os.Stdout, true)
	gin.SetMode(gin.ReleaseMode)

	cfg, b := openBackend()
	defer b.Close()

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	srv := server.New(b, cfg.Work, logging.Level, server.WithLocation(time.Local))
	if err := srv.Run(addr); err != nil {
		slog.Error("server stopped", "error", err)
		exitStorage(err)
	}
	return nil
}
