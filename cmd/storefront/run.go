package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/utafrali/laptopstore/internal/app"
	"github.com/utafrali/laptopstore/internal/config"
	"github.com/utafrali/laptopstore/pkg/logger"
)

// newLogger builds the process logger. One-shot commands log text to stderr
// so stdout carries only the command result.
func newLogger(cfg *config.Config, service bool) *slog.Logger {
	if service {
		return logger.NewWithFormat("storefront", cfg.LogLevel, logger.Format(cfg.LogFormat), os.Stdout)
	}
	level := cfg.LogLevel
	if level == "info" {
		level = "warn"
	}
	return logger.NewWithFormat("storefront", level, logger.FormatText, os.Stderr)
}

// withApp restores the persisted session, runs fn and shuts the app down.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	a, err := app.NewApp(ctx, cfg, newLogger(cfg, false))
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer func() { _ = a.Shutdown() }()

	a.Restore(ctx)
	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
