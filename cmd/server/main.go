// Package main is the entry point for the caltrack server. It stays
// minimal: load configuration, build the logger, hand off to the server
// package.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/caltrack/caltrack/internal/config"
	"github.com/caltrack/caltrack/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Data files live under a shared directory that may not exist on first
	// run.
	for _, dir := range []string{filepath.Dir(cfg.DatabasePath), filepath.Dir(cfg.StatePath)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Error("creating data directory", "dir", dir, "error", err)
			os.Exit(1)
		}
	}

	if cfg.GeminiAPIKey == "" {
		logger.Warn("no shared Gemini credential configured; analysis requires a user API key")
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("creating server", "error", err)
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
