package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger. Production keeps Info and drops
// source locations; everywhere else Debug with sources is worth the noise.
// Every line carries the service name so aggregated logs stay filterable.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug, AddSource: true}
	if cfg.IsProduction() {
		opts = &slog.HandlerOptions{Level: slog.LevelInfo}
	}

	var handler slog.Handler
	if cfg != nil && cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler).With(slog.String("service", "userdesk"))
}
