// Package main is the entrypoint for the transcribed API server.
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

	"github.com/ecoworks/transcribed/internal/api"
	"github.com/ecoworks/transcribed/internal/api/handler"
	mw "github.com/ecoworks/transcribed/internal/api/middleware"
	"github.com/ecoworks/transcribed/internal/api/response"
	"github.com/ecoworks/transcribed/internal/config"
	"github.com/ecoworks/transcribed/internal/cost"
	"github.com/ecoworks/transcribed/internal/history"
	"github.com/ecoworks/transcribed/internal/jobs"
	"github.com/ecoworks/transcribed/internal/jobstore"
	"github.com/ecoworks/transcribed/internal/queue"
	"github.com/ecoworks/transcribed/internal/transcribe"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config — fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "store_backend", cfg.Store.Backend, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Create job store
	var (
		jobStore   jobstore.Store
		redisStore *jobstore.RedisStore
	)
	switch cfg.Store.Backend {
	case config.StoreBackendRedis:
		redisStore, err = jobstore.NewRedisStore(cfg.Redis.URL, cfg.Store.JobTTL)
		if err != nil {
			return fmt.Errorf("create redis job store: %w", err)
		}
		jobStore = redisStore
	default:
		jobStore = jobstore.NewMemoryStore(cfg.Store.JobTTL)
	}
	defer jobStore.Close()

	if err := jobStore.Ping(ctx); err != nil {
		return fmt.Errorf("ping job store: %w", err)
	}
	slog.Info("job store ready", "backend", cfg.Store.Backend)

	tracker := jobs.NewTracker(jobStore)

	// 3. Create transcription engine and cloud client
	engine := transcribe.NewSidecarEngine(cfg.Whisper.BaseURL, cfg.Whisper.Model, cfg.Whisper.DefaultLanguage, cfg.Whisper.Timeout)
	cloud := transcribe.NewCloudClient(cfg.Cloud.BaseURL, cfg.Cloud.APIKey, cfg.Cloud.Model, cfg.Cloud.Timeout)

	// 4. Create task queue. With the redis backend a separate worker
	// process consumes tasks; with the memory backend jobs must run in
	// this process, so the queue executes inline.
	var taskQueue transcribe.Enqueuer
	if cfg.Store.Backend == config.StoreBackendRedis {
		asynqQueue, err := queue.NewAsynqQueue(cfg.Redis.URL, cfg.Queue)
		if err != nil {
			return fmt.Errorf("create task queue: %w", err)
		}
		defer asynqQueue.Close()
		taskQueue = asynqQueue
	} else {
		executor := transcribe.NewExecutor(tracker, engine, cloud, cost.Rates{
			CloudPerMinute: cfg.Rates.CloudPerMinute,
			LocalPerMinute: cfg.Rates.LocalPerMinute,
		})
		inline := queue.NewInlineQueue(cfg.Queue, executor)
		defer inline.Close()
		taskQueue = inline
	}
	slog.Info("task queue ready")

	// 5. Connect to database and run migrations
	pool, err := history.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := history.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	historyStore := history.NewPostgresStore(pool)

	// 6. Build router with dependencies
	svc := transcribe.NewService(tracker, taskQueue)

	var rateLimit *mw.RateLimit
	if redisStore != nil {
		rateLimit = mw.NewRateLimit(redisStore, 60)
	}

	deps := api.Dependencies{
		RateLimit: rateLimit,

		HealthHandler:       healthHandler(historyStore, jobStore),
		UploadHandler:       handler.NewUploadHandler(svc),
		ProgressStream:      handler.NewProgressStreamHandler(svc, cfg.Stream.Cadence),
		ProgressPoll:        handler.NewProgressPollHandler(svc),
		EngineStatusHandler: handler.NewEngineStatusHandler(engine, cfg.Cloud.APIKey != ""),

		CreateTranscript: handler.NewCreateTranscriptHandler(historyStore),
		ListTranscripts:  handler.NewListTranscriptsHandler(historyStore),
		GetTranscript:    handler.NewGetTranscriptHandler(historyStore),
		DeleteTranscript: handler.NewDeleteTranscriptHandler(historyStore),
	}

	router := api.NewRouter(deps)

	// 7. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: progress streams stay open for the length
		// of the transcription.
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// healthHandler checks database and job store connectivity.
func healthHandler(h history.Store, s jobstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"database":  "ok",
			"job_store": "ok",
		}

		if err := h.Ping(r.Context()); err != nil {
			checks["database"] = "degraded"
		}
		if err := s.Ping(r.Context()); err != nil {
			checks["job_store"] = "degraded"
		}

		degraded := checks["database"] != "ok" || checks["job_store"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
