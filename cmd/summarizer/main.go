// interviewsdb summarizer
//
// Drains the ingestion queue, summarizes each post through the external LLM
// service, extracts company/role metadata, and upserts the result into the
// search-facing results store.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Steven20210/reddit-interviews/internal/config"
	"github.com/Steven20210/reddit-interviews/internal/db"
	"github.com/Steven20210/reddit-interviews/internal/ledger"
	"github.com/Steven20210/reddit-interviews/internal/llm"
	"github.com/Steven20210/reddit-interviews/internal/logging"
	"github.com/Steven20210/reddit-interviews/internal/queue"
	"github.com/Steven20210/reddit-interviews/internal/results"
	"github.com/Steven20210/reddit-interviews/internal/summarizer"
)

func main() {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "summarizer: config error: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "summarizer: logger error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	// ── MongoDB (results store) ──────────────────────────────────────────────
	mongoClient, err := db.NewMongoClient(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatal("mongo connect failed", zap.Error(err))
	}
	defer func() {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	store := results.New(mongoClient, cfg.MongoDatabase)
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Fatal("mongo index setup failed", zap.Error(err))
	}
	log.Info("mongo connected", zap.String("database", cfg.MongoDatabase))

	// ── PostgreSQL (ledger, processed flag) ──────────────────────────────────
	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("postgres connect failed", zap.Error(err))
	}
	defer pool.Close()
	ldg := ledger.New(pool)

	// ── LLM client ───────────────────────────────────────────────────────────
	llmClient, err := llm.NewClient(llm.Config{
		APIKey:      cfg.LLMAPIKey,
		BaseURL:     cfg.LLMBaseURL,
		Model:       cfg.LLMModel,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: cfg.LLMTemperature,
	})
	if err != nil {
		log.Fatal("llm client setup failed", zap.Error(err))
	}

	// ── Worker loop ──────────────────────────────────────────────────────────
	hostname, _ := os.Hostname()
	worker := summarizer.NewWorker(q, llmClient, store, ldg, summarizer.Config{
		Consumer:  "summarizer-" + hostname,
		BatchSize: int64(cfg.QueueBatchSize),
		Block:     5 * time.Second,
		Pacing:    cfg.LLMPacing,
	}, log)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		cancel()
	}()

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("worker stopped", zap.Error(err))
	}
	log.Info("stopped")
}
