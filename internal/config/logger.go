package config

import (
	"log/slog"
	"os"
)

// NewLogger returns a JSON logger in production and a text logger otherwise
func (c *Config) NewLogger() *slog.Logger {
	level := slog.LevelInfo
	if c.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	if c.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
