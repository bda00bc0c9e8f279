// Package main is the entrypoint for the transcribed task worker. It
// consumes transcription tasks from Redis and executes them against the
// local engine and the cloud API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ecoworks/transcribed/internal/config"
	"github.com/ecoworks/transcribed/internal/cost"
	"github.com/ecoworks/transcribed/internal/jobs"
	"github.com/ecoworks/transcribed/internal/jobstore"
	"github.com/ecoworks/transcribed/internal/queue"
	"github.com/ecoworks/transcribed/internal/transcribe"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("worker failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Store.Backend != config.StoreBackendRedis {
		return fmt.Errorf("the worker requires JOB_STORE_BACKEND=redis; the memory backend runs jobs inside the server process")
	}
	slog.Info("config loaded", "queue", cfg.Queue.Name, "concurrency", cfg.Queue.Concurrency)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to the job store
	store, err := jobstore.NewRedisStore(cfg.Redis.URL, cfg.Store.JobTTL)
	if err != nil {
		return fmt.Errorf("create redis job store: %w", err)
	}
	defer store.Close()

	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("ping job store: %w", err)
	}
	slog.Info("job store connected")

	tracker := jobs.NewTracker(store)

	// 3. Create transcription engine and cloud client
	engine := transcribe.NewSidecarEngine(cfg.Whisper.BaseURL, cfg.Whisper.Model, cfg.Whisper.DefaultLanguage, cfg.Whisper.Timeout)
	cloud := transcribe.NewCloudClient(cfg.Cloud.BaseURL, cfg.Cloud.APIKey, cfg.Cloud.Model, cfg.Cloud.Timeout)

	executor := transcribe.NewExecutor(tracker, engine, cloud, cost.Rates{
		CloudPerMinute: cfg.Rates.CloudPerMinute,
		LocalPerMinute: cfg.Rates.LocalPerMinute,
	})

	// 4. Start the task worker
	worker, err := queue.NewWorker(cfg.Redis.URL, cfg.Queue, executor)
	if err != nil {
		return fmt.Errorf("create worker: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("worker consuming tasks", "queue", cfg.Queue.Name)
		if err := worker.Run(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("worker error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, finishing in-flight tasks...")
	}

	worker.Shutdown()
	slog.Info("worker stopped gracefully")
	return nil
}
