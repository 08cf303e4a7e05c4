package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/josh-kwaku/kasboek/api"
	"github.com/josh-kwaku/kasboek/internal/category"
	"github.com/josh-kwaku/kasboek/internal/config"
	"github.com/josh-kwaku/kasboek/internal/handler"
	"github.com/josh-kwaku/kasboek/internal/logging"
	"github.com/josh-kwaku/kasboek/internal/middleware"
	"github.com/josh-kwaku/kasboek/internal/repository"
	"github.com/josh-kwaku/kasboek/internal/service"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Init("kasboek-api", cfg.LogLevel, cfg.AppEnv)

	rules, err := category.Load(cfg.CategoryRulesPath)
	if err != nil {
		logger.Error("failed to load category rules", "error", err, "path", cfg.CategoryRulesPath)
		os.Exit(1)
	}

	db, err := repository.NewPostgresDB(context.Background(), cfg.DatabaseURL, cfg.Pool())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	days := repository.NewDayRepository(db)
	txns := repository.NewTransactionRepository(db)
	reports := repository.NewReportRepository(db)
	idempotency := repository.NewIdempotencyRepository(db)
	notifier := repository.NewNotifier(cfg.RecomputeChannel)

	ledgerSvc := service.NewLedgerService(days, txns, notifier, rules, db)
	journalSvc := service.NewJournalService(reports, days, rules)

	ledgerHandler := handler.NewLedgerHandler(ledgerSvc)
	journalHandler := handler.NewJournalHandler(journalSvc)
	healthHandler := handler.NewHealthHandler(db, version)

	replayable := middleware.Idempotency(idempotency, cfg.IdempotencyTTL())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)
	mux.HandleFunc("GET /docs", handler.ServeDocs("/docs/openapi.yaml"))
	mux.HandleFunc("GET /docs/openapi.yaml", handler.ServeSpec(api.OpenAPISpec))

	mux.HandleFunc("GET /ledger/days", ledgerHandler.ListDays)
	mux.HandleFunc("POST /ledger/days", ledgerHandler.CreateDay)
	mux.HandleFunc("GET /ledger/days/{id}", ledgerHandler.GetDay)
	mux.HandleFunc("PATCH /ledger/days/{id}/closing", ledgerHandler.SetClosingBalance)
	mux.HandleFunc("PATCH /ledger/days/{id}/opening", ledgerHandler.SetOpeningBalance)
	mux.HandleFunc("GET /ledger/days/{id}/transactions", ledgerHandler.ListTransactions)
	mux.Handle("POST /ledger/days/{id}/transactions", replayable(http.HandlerFunc(ledgerHandler.AddTransaction)))

	mux.HandleFunc("GET /ledger/months/{month}/journal", journalHandler.Journal)
	mux.HandleFunc("GET /ledger/months/{month}/journal.csv", journalHandler.JournalCSV)
	mux.HandleFunc("GET /ledger/months/{month}/summary", journalHandler.Summary)
	mux.HandleFunc("GET /ledger/categories", handler.ListCategories(rules))

	var h http.Handler = mux
	h = middleware.Logging(h)
	h = middleware.Auth(cfg.JWTSecret, "/health", "/health/ready", "/docs", "/docs/")(h)
	h = middleware.Tracing(h)
	h = middleware.Recovery(h)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweepIdempotencyCache(ctx, idempotency, logger)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("server started", "addr", addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

type expiredCleaner interface {
	CleanExpired(ctx context.Context) (int64, error)
}

func sweepIdempotencyCache(ctx context.Context, repo expiredCleaner, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.CleanExpired(ctx)
			if err != nil {
				logger.Warn("idempotency cache sweep failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("idempotency cache swept", "removed", n)
			}
		}
	}
}
