package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/josh-kwaku/kasboek/internal/config"
	"github.com/josh-kwaku/kasboek/internal/listener"
	"github.com/josh-kwaku/kasboek/internal/logging"
	"github.com/josh-kwaku/kasboek/internal/repository"
	"github.com/josh-kwaku/kasboek/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("kasboek-recomputer", cfg.LogLevel, cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, cfg.Pool())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	recompute := service.NewRecomputeService(
		repository.NewDayRepository(db),
		repository.NewReportRepository(db),
		db,
		logger,
	)

	pql := listener.Dial(cfg.DatabaseURL, cfg.ListenerMinReconnect(), cfg.ListenerMaxReconnect(), logger)
	defer pql.Close()

	consumer := listener.NewConsumer(pql, pql.Notify, cfg.RecomputeChannel, recompute, logger, cfg.ListenerPingInterval())
	if err := consumer.Start(ctx); err != nil {
		logger.Error("recompute consumer exited", "error", err)
		os.Exit(1)
	}
}
