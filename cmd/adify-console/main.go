package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	console "github.com/socialadify/adify-console"
	"github.com/socialadify/adify-console/config"
	"github.com/socialadify/adify-console/internal/bootstrap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := bootstrap.InitLogger(slog.LevelInfo)
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logger = bootstrap.InitLogger(cfg.SlogLevel())
	logStartupInfo(ctx, logger, &cfg)

	templates, err := fs.Sub(console.TemplateFS, "web/templates")
	if err != nil {
		return err
	}
	return bootstrap.Run(ctx, bootstrap.RunOptions{
		Config:    &cfg,
		Templates: templates,
		Logger:    logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting adify console",
		"addr", cfg.HTTP.Addr,
		"api_origin", cfg.API.Origin(),
		"storage_driver", cfg.Storage.Driver,
		"metrics_enabled", cfg.Observability.Metrics.IsEnabled(),
		"dev", cfg.IsDev,
	)
}
