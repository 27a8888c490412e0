// Package logging configures the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Level is shared by every handler created through Setup, so the level can
// be changed at runtime.
var Level = new(slog.LevelVar)

// Setup installs a default logger writing to w, as JSON when json is true
// and as text otherwise.
func Setup(w io.Writer, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: Level}
	var h slog.Handler
	if json {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// SetLevel parses level and applies it to v.
func SetLevel(level string, v *slog.LevelVar) error {
	switch strings.ToLower(level) {
	case "debug":
		v.Set(slog.LevelDebug)
	case "info":
		v.Set(slog.LevelInfo)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		return fmt.Errorf("the log level must be one of (debug, info, warn, error) received %s", level)
	}
	return nil
}
