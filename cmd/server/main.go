package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mcoot/tworoomsboom/internal/api"
	"github.com/mcoot/tworoomsboom/internal/config"
	"github.com/mcoot/tworoomsboom/internal/factory"
	"github.com/mcoot/tworoomsboom/internal/janitor"
	"github.com/mcoot/tworoomsboom/internal/server"
)

func main() {
	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()

	cfg := &config.Config{}
	cmd := &cobra.Command{
		Use:   "tworooms-server",
		Short: "Two Rooms and a Boom game server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
		SilenceUsage: true,
	}
	config.Bind(cmd, cfg)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	level, err := cfg.Level()
	if err != nil {
		return err
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if cfg.SeatSecret == "" {
		logger.Warn("no seat secret configured; seats will not survive a restart")
	}

	app, err := factory.New(cfg.Factory(logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("close error", slog.String("error", err.Error()))
		}
	}()

	jan, err := janitor.New(app.HubManager, app.Purger, app.Clock, cfg.Janitor(), logger)
	if err != nil {
		return err
	}
	jan.Start()
	defer jan.Stop(context.Background())

	handler := server.Handler(app, server.Options{
		Logger:    logger,
		PublicURL: cfg.PublicURL,
		StaticDir: cfg.StaticDir,
	})

	srv := api.NewServer(handler, cfg.Server(), logger)
	srv.RegisterOnShutdown(app.HubManager.Shutdown)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Listen(); err != nil {
		return err
	}
	logger.Info("server started",
		slog.String("addr", srv.Addr()),
		slog.String("storage", cfg.Storage),
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("server stopped")
	return nil
}
