package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/stockledger/cmd/stockledger/cli"
	"github.com/odyssey-erp/stockledger/internal/app"
	"github.com/odyssey-erp/stockledger/internal/dashboard"
	"github.com/odyssey-erp/stockledger/internal/entry"
	"github.com/odyssey-erp/stockledger/internal/ledger"
	"github.com/odyssey-erp/stockledger/internal/ledger/export"
	"github.com/odyssey-erp/stockledger/internal/lookup"
	"github.com/odyssey-erp/stockledger/internal/observability"
	"github.com/odyssey-erp/stockledger/internal/platform/cache"
	"github.com/odyssey-erp/stockledger/internal/sheets"
	"github.com/odyssey-erp/stockledger/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		os.Exit(cli.Run(ctx, cfg.RedisAddr, os.Args[2:], os.Stdout))
	}

	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store, err := sheets.NewClient(sheets.Config{
		Endpoint:      cfg.SheetsEndpoint,
		FolderID:      cfg.UploadFolderID,
		Timeout:       cfg.SheetsTimeout,
		UploadTimeout: cfg.UploadTimeout,
		Observer:      metrics,
	})
	if err != nil {
		logger.Error("init sheets client", slog.Any("error", err))
		os.Exit(1)
	}

	var (
		commits   ledger.CommitLog = ledger.NewMemoryCommitLog(cfg.CommitTTL)
		inspector *asynq.Inspector
		enqueuer  jobs.Enqueuer
	)
	if cfg.RedisEnabled() {
		redisClient, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, using in-memory commit log", slog.Any("error", err))
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					logger.Warn("redis close", slog.Any("error", err))
				}
			}()
			commits = ledger.NewRedisCommitLog(redisClient, "", cfg.CommitTTL)

			inspector = asynq.NewInspector(cache.QueueOpt(cfg.RedisAddr))
			defer func() {
				if err := inspector.Close(); err != nil {
					logger.Warn("inspector close", slog.Any("error", err))
				}
			}()
			jobClient, err := jobs.NewClient(cache.QueueOpt(cfg.RedisAddr))
			if err != nil {
				logger.Error("init job client", slog.Any("error", err))
				os.Exit(1)
			}
			defer jobClient.Close()
			enqueuer = jobClient
		}
	}

	sessions := ledger.NewSessionStore(cfg.SessionIdle)
	ledgerService := ledger.NewService(store, store, commits, sessions, ledger.ServiceConfig{
		PendingSheet:  cfg.PendingSheet,
		HistorySheet:  cfg.HistorySheet,
		UploadTimeout: cfg.UploadTimeout,
		LoadTimeout:   cfg.LoadTimeout,
		Location:      cfg.Location(),
	}, logger)
	ledgerService.SetRecorder(metrics)
	if _, err := ledgerService.Load(ctx); err != nil {
		logger.Warn("initial ledger load", slog.Any("error", err))
	}

	lookupService := lookup.NewService(store, cfg.LookupSheet, logger)
	if _, err := lookupService.Load(ctx); err != nil {
		logger.Warn("initial lookup load", slog.Any("error", err))
	}

	entryService := entry.NewService(store, store, ledgerService, entry.Config{
		HistorySheet:  cfg.HistorySheet,
		UploadTimeout: cfg.UploadTimeout,
		Location:      cfg.Location(),
	}, logger)
	dashboardService := dashboard.NewService(ledgerService, ledger.Filter{Loc: cfg.Location()})

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		LedgerHandler:    ledger.NewHandler(logger, ledgerService),
		ExportHandler:    export.NewHandler(logger, ledgerService),
		LookupHandler:    lookup.NewHandler(logger, lookupService),
		EntryHandler:     entry.NewHandler(logger, entryService),
		DashboardHandler: dashboard.NewHandler(logger, dashboardService),
		JobHandler:       jobs.NewHandler(inspector, enqueuer, logger),
		Metrics:          metrics,
	})

	go sweepSessions(ctx, sessions, cfg.SessionIdle, logger)

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func sweepSessions(ctx context.Context, sessions *ledger.SessionStore, idle time.Duration, logger *slog.Logger) {
	interval := idle / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := sessions.Sweep(now); n > 0 {
				logger.Info("expired edit sessions", slog.Int("count", n))
			}
		}
	}
}
