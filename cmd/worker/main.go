package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/stockledger/internal/app"
	jobmetrics "github.com/odyssey-erp/stockledger/internal/jobs"
	"github.com/odyssey-erp/stockledger/internal/ledger"
	"github.com/odyssey-erp/stockledger/internal/observability"
	"github.com/odyssey-erp/stockledger/internal/platform/cache"
	"github.com/odyssey-erp/stockledger/internal/sheets"
	"github.com/odyssey-erp/stockledger/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	if !cfg.RedisEnabled() {
		logger.Error("worker requires REDIS_ADDR")
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())

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

	// The worker only reads the ledger; sessions and the commit log stay unused.
	ledgerService := ledger.NewService(store, store, ledger.NewMemoryCommitLog(cfg.CommitTTL), ledger.NewSessionStore(cfg.SessionIdle), ledger.ServiceConfig{
		PendingSheet:  cfg.PendingSheet,
		HistorySheet:  cfg.HistorySheet,
		UploadTimeout: cfg.UploadTimeout,
		LoadTimeout:   cfg.LoadTimeout,
		Location:      cfg.Location(),
	}, logger)
	scanner := jobs.NewLowStockScanner(ledgerService, logger, jobMetrics)

	var cron []jobs.CronRegistration
	if cfg.LowStockScanCron != "" {
		scanTask, err := jobs.NewLowStockScanTask(jobs.LowStockScanPayload{Reason: "schedule"})
		if err != nil {
			logger.Error("build low stock task", slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, jobs.CronRegistration{Spec: cfg.LowStockScanCron, Task: scanTask, Options: []asynq.Option{asynq.MaxRetry(3)}})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   cache.QueueOpt(cfg.RedisAddr),
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Location:    cfg.Location(),
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLowStockScan, Handler: scanner.Handle},
		},
		Cron: cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: metrics.Handler(), ReadTimeout: 5 * time.Second}
	go func() {
		logger.Info("starting worker metrics", slog.String("addr", cfg.WorkerMetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
