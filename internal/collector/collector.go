// Package collector walks the configured sources and queries, scores and
// deduplicates fetched posts, and enqueues survivors for summarization.
package collector

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/Steven20210/reddit-interviews/internal/dedup"
	"github.com/Steven20210/reddit-interviews/internal/ledger"
	"github.com/Steven20210/reddit-interviews/internal/model"
	"github.com/Steven20210/reddit-interviews/internal/score"
)

// Source is the source platform client boundary.
type Source interface {
	Search(ctx context.Context, subreddit, query, timeFilter string, limit int) ([]model.RawCandidate, error)
	TopComments(ctx context.Context, postID string, limit int) ([]model.Comment, error)
}

// Ledger is the dedup/change-detection boundary.
type Ledger interface {
	Upsert(ctx context.Context, url, hash string, payload []byte) (ledger.Outcome, error)
}

// Enqueuer is the ingestion queue boundary.
type Enqueuer interface {
	Enqueue(ctx context.Context, msg model.QueuedMessage) (string, error)
}

// Config holds the collection surface and gate thresholds.
type Config struct {
	Sources        []string
	Queries        []string
	PostLimit      int
	CommentLimit   int
	MinLength      int
	ScoreThreshold int
}

// Stats summarizes one collector pass.
type Stats struct {
	Fetched    int // candidates returned by the source platform
	Rejected   int // failed the relevance gate
	Enqueued   int // passed both gates, enqueued for summarization
	Duplicates int // ledger reported unchanged content
	Errors     int // per-query or per-candidate failures skipped over
}

// Worker runs collector passes. One ledger upsert and at most one enqueue
// happen per fetched candidate; a failing query never aborts the others.
type Worker struct {
	source Source
	ledger Ledger
	queue  Enqueuer
	cfg    Config
	log    *zap.Logger
}

// NewWorker constructs a Worker.
func NewWorker(source Source, ldg Ledger, queue Enqueuer, cfg Config, log *zap.Logger) *Worker {
	return &Worker{source: source, ledger: ldg, queue: queue, cfg: cfg, log: log}
}

// RunPass executes one full pass over all sources and queries for the given
// time filter.
func (w *Worker) RunPass(ctx context.Context, timeFilter string) (Stats, error) {
	var stats Stats

	for _, source := range w.cfg.Sources {
		for _, query := range w.cfg.Queries {
			if err := ctx.Err(); err != nil {
				return stats, err
			}

			candidates, err := w.source.Search(ctx, source, query, timeFilter, w.cfg.PostLimit)
			if err != nil {
				stats.Errors++
				w.log.Warn("search failed, skipping query",
					zap.String("source", source),
					zap.String("query", query),
					zap.Error(err))
				continue
			}
			stats.Fetched += len(candidates)

			for _, candidate := range candidates {
				w.processCandidate(ctx, candidate, &stats)
			}
		}
	}

	w.log.Info("collector pass complete",
		zap.String("time_filter", timeFilter),
		zap.Int("fetched", stats.Fetched),
		zap.Int("rejected", stats.Rejected),
		zap.Int("enqueued", stats.Enqueued),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("errors", stats.Errors))
	return stats, nil
}

// processCandidate applies the relevance gate, completes the candidate with
// its top comments, and couples the ledger upsert to queue population:
// identical resubmission never enqueues, changed content always does.
func (w *Worker) processCandidate(ctx context.Context, candidate model.RawCandidate, stats *Stats) {
	if !score.Accept(candidate.Title, candidate.Body, w.cfg.ScoreThreshold, w.cfg.MinLength) {
		stats.Rejected++
		return
	}

	// Comments are fetched only for candidates that pass the gate; the
	// source platform is rate-limited.
	comments, err := w.source.TopComments(ctx, candidate.ExternalID, w.cfg.CommentLimit)
	if err != nil {
		w.log.Warn("comment fetch failed, keeping post without comments",
			zap.String("url", candidate.URL),
			zap.Error(err))
	}
	candidate.TopComments = comments

	if err := w.submit(ctx, candidate, stats); err != nil {
		stats.Errors++
		w.log.Warn("candidate submission failed",
			zap.String("url", candidate.URL),
			zap.Error(err))
	}
}

func (w *Worker) submit(ctx context.Context, candidate model.RawCandidate, stats *Stats) error {
	hash, err := dedup.Hash(candidate)
	if err != nil {
		return fmt.Errorf("hash candidate: %w", err)
	}

	payload, err := json.Marshal(candidate)
	if err != nil {
		return fmt.Errorf("marshal candidate: %w", err)
	}

	outcome, err := w.ledger.Upsert(ctx, candidate.URL, hash, payload)
	if err != nil {
		return fmt.Errorf("ledger upsert: %w", err)
	}

	if !outcome.Changed() {
		stats.Duplicates++
		return nil
	}

	msg := model.QueuedMessage{URL: candidate.URL, Hash: hash, Payload: candidate}
	if _, err := w.queue.Enqueue(ctx, msg); err != nil {
		return fmt.Errorf("enqueue: %w", err)
	}
	stats.Enqueued++

	w.log.Debug("candidate enqueued",
		zap.String("url", candidate.URL),
		zap.String("outcome", outcome.String()))
	return nil
}
