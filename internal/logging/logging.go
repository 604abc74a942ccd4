// Package logging configures the process-wide structured logger.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

var programLevel = new(slog.LevelVar)

// filterAttr drops sensitive attributes from log output.
func filterAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key == "password" || a.Key == "secret" || a.Key == "token" {
		return slog.Attr{}
	}
	return a
}

// NewLogger creates a logger with the given level and installs it as the
// slog default.
func NewLogger(level string) (*slog.Logger, error) {
	handler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:       programLevel,
		TimeFormat:  time.RFC3339,
		ReplaceAttr: filterAttr,
	})

	if err := SetLogLevel(level); err != nil {
		return nil, err
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}

// SetLogLevel adjusts the logging level at runtime.
func SetLogLevel(level string) error {
	switch strings.ToLower(level) {
	case "debug":
		programLevel.Set(slog.LevelDebug)
	case "info":
		programLevel.Set(slog.LevelInfo)
	case "warn":
		programLevel.Set(slog.LevelWarn)
	case "error":
		programLevel.Set(slog.LevelError)
	default:
		return fmt.Errorf("invalid log level: %q", level)
	}
	return nil
}

// Err returns a formatted error attribute for logging.
func Err(err error) slog.Attr {
	return tint.Err(err)
}
