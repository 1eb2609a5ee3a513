package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avelichkin/portfolio-assistant/internal/bootstrap"
	"github.com/avelichkin/portfolio-assistant/internal/config"
	"github.com/avelichkin/portfolio-assistant/internal/core/domain"
	"github.com/avelichkin/portfolio-assistant/internal/observability/logging"
	"github.com/avelichkin/portfolio-assistant/internal/observability/metrics"
)

const ingestTimeout = 2 * time.Minute

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeRecordChanged(ctx, func(handlerCtx context.Context, event domain.RecordEvent) error {
		ingestCtx, cancel := context.WithTimeout(handlerCtx, ingestTimeout)
		defer cancel()

		if !event.OccurredAt.IsZero() {
			workerMetrics.ObserveQueueLag("worker", time.Since(event.OccurredAt))
		}

		workerMetrics.StartIngest()
		start := time.Now()

		switch event.Op {
		case domain.OpDelete:
			err := app.Ingestor.DeleteRecord(ingestCtx, event.ContentType, event.ReferenceID)
			status := "deleted"
			if err != nil {
				status = "error"
			}
			workerMetrics.FinishIngest("worker", status, time.Since(start), 0)
			return err
		default:
			outcome, err := app.Ingestor.UpsertRecord(ingestCtx, event.ContentType, event.ReferenceID)
			status := "refreshed"
			switch {
			case err != nil:
				status = "error"
			case !outcome.Refreshed:
				status = "stale"
			}
			workerMetrics.FinishIngest("worker", status, time.Since(start), outcome.ChunkCount)
			if err == nil && !outcome.Refreshed {
				slog.Warn("record_left_stale",
					"content_type", event.ContentType,
					"reference_id", event.ReferenceID,
					"failure_stage", outcome.FailureStage,
				)
			}
			return err
		}
	})
	if err != nil {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
