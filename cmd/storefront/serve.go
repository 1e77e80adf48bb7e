package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/utafrali/laptopstore/internal/app"
	"github.com/utafrali/laptopstore/internal/config"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the view-layer JSON API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			log := newLogger(cfg, true)
			log.Info("starting storefront",
				slog.String("environment", cfg.Environment),
				slog.Int("http_port", cfg.HTTPPort),
				slog.String("store_driver", cfg.StoreDriver),
			)

			application, err := app.NewApp(cmd.Context(), cfg, log)
			if err != nil {
				return fmt.Errorf("initialize: %w", err)
			}

			if err := application.Run(cmd.Context()); err != nil {
				return err
			}
			log.Info("storefront stopped")
			return nil
		},
	}
}
