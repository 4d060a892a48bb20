// Package logging initialises the process-wide slog logger. Handlers
// are wrapped with slog-context so request-scoped attributes attached
// to a context travel with every log line.
package logging

import (
	"fmt"
	"log/slog"
	"os"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openfin/connect-manager/internal/config"
)

// InitAsDefault configures the default slog logger from config.
func InitAsDefault(cfg config.Logger, app config.Application) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	case "json", "":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		return fmt.Errorf("unsupported log format: %q", cfg.Format)
	}

	logger := slog.New(slogctx.NewHandler(handler, nil)).With(
		"application", app.Name,
		"environment", app.Environment,
	)
	slog.SetDefault(logger)

	return nil
}
