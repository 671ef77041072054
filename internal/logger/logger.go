package logger

import (
	"log/slog"
	"os"

	"github.com/storyloom/guardrail/internal/config"
)

// Setup configures the global slog logger based on environment
func Setup(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}

	var handler slog.Handler
	if cfg.Environment == "production" {
		// JSON format for production
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		// Text format for development
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// WithTurnID adds a turn ID to logger context
func WithTurnID(logger *slog.Logger, turnID string) *slog.Logger {
	return logger.With("turn_id", turnID)
}
