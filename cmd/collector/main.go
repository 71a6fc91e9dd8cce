// interviewsdb collector
//
// Walks the configured subreddits and search queries on a cron schedule,
// scores and deduplicates fetched posts, and enqueues survivors on the
// ingestion queue for the summarizer. Also exposes a manual trigger endpoint
// so a collection cycle can be kicked off on demand.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Steven20210/reddit-interviews/internal/collector"
	"github.com/Steven20210/reddit-interviews/internal/config"
	"github.com/Steven20210/reddit-interviews/internal/db"
	"github.com/Steven20210/reddit-interviews/internal/ledger"
	"github.com/Steven20210/reddit-interviews/internal/logging"
	"github.com/Steven20210/reddit-interviews/internal/queue"
	"github.com/Steven20210/reddit-interviews/internal/reddit"
	"github.com/Steven20210/reddit-interviews/internal/scheduler"
)

const version = "1.0.0"

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "collector: config error: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "collector: logger error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── PostgreSQL (ledger) ──────────────────────────────────────────────────
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("postgres connect failed", zap.Error(err))
	}
	defer pool.Close()

	ldg := ledger.New(pool)
	if err := ldg.Migrate(ctx); err != nil {
		log.Fatal("ledger migration failed", zap.Error(err))
	}
	log.Info("postgres connected")

	// ── Redis (ingestion queue) ──────────────────────────────────────────────
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("redis connect failed", zap.Error(err))
	}
	defer rdb.Close()

	q := queue.New(rdb, queue.Config{
		Stream:      cfg.QueueStream,
		Group:       cfg.QueueGroup,
		Visibility:  cfg.QueueVisibility,
		MaxAttempts: int64(cfg.QueueMaxAttempts),
	})
	if err := q.Ensure(ctx); err != nil {
		log.Fatal("queue setup failed", zap.Error(err))
	}
	log.Info("redis connected", zap.String("stream", cfg.QueueStream))

	// ── Collector + scheduler ────────────────────────────────────────────────
	source := reddit.NewClient(cfg.RedditBaseURL, cfg.RedditUserAgent)
	worker := collector.NewWorker(source, ldg, q, collector.Config{
		Sources:        cfg.Sources,
		Queries:        cfg.Queries,
		PostLimit:      cfg.PostLimit,
		CommentLimit:   cfg.CommentLimit,
		MinLength:      cfg.MinLength,
		ScoreThreshold: cfg.ScoreThreshold,
	}, log)

	sched := scheduler.New(worker, cfg.TimeFilters, cfg.ScrapeIntervalHours, log)
	if err := sched.Start(ctx); err != nil {
		log.Fatal("scheduler start failed", zap.Error(err))
	}
	defer sched.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/api/fetch-posts", fetchHandler(ctx, sched, ldg, log))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Minute, // a manual collection cycle runs inline
	}

	go func() {
		log.Info("collector listening", zap.String("port", cfg.Port), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server error", zap.Error(err))
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown error", zap.Error(err))
	}
	log.Info("stopped")
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "collector",
		"version": version,
	})
}

// fetchHandler runs a full collection cycle inline and reports the ledger
// size, mirroring the manual trigger of the original deployment.
func fetchHandler(ctx context.Context, sched *scheduler.Scheduler, ldg *ledger.Ledger, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		log.Info("manual collection triggered")
		sched.RunOnce(ctx)

		count, err := ldg.Count(r.Context())
		if err != nil {
			log.Warn("ledger count failed", zap.Error(err))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":     true,
			"posts_count": count,
		})
	}
}
