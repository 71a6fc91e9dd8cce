// Package summarizer drains the ingestion queue, summarizes each post via
// the external LLM service, extracts company/role metadata, and persists the
// result for the search API.
package summarizer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Steven20210/reddit-interviews/internal/extract"
	"github.com/Steven20210/reddit-interviews/internal/model"
	"github.com/Steven20210/reddit-interviews/internal/queue"
	"github.com/Steven20210/reddit-interviews/internal/results"
)

// Queue is the ingestion queue boundary.
type Queue interface {
	Receive(ctx context.Context, consumer string, batch int64, block time.Duration) ([]queue.Message, error)
	Delete(ctx context.Context, msg queue.Message) error
}

// LLM is the completion service boundary.
type LLM interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Results is the results store boundary.
type Results interface {
	Upsert(ctx context.Context, post model.SummarizedPost) error
	RecordCompanyRole(ctx context.Context, company, role string) error
}

// Ledger marks ledger rows processed once their message has been handled.
type Ledger interface {
	MarkProcessed(ctx context.Context, url string) error
}

// Config holds summarizer settings.
type Config struct {
	Consumer  string        // consumer name within the queue group
	BatchSize int64         // messages per receive
	Block     time.Duration // receive block timeout
	Pacing    time.Duration // fixed delay between LLM calls
}

// Worker drains the queue serially. Processing is single-threaded by design:
// the LLM rate limit makes concurrent calls counterproductive.
type Worker struct {
	queue   Queue
	llm     LLM
	results Results
	ledger  Ledger
	cfg     Config
	log     *zap.Logger
}

// NewWorker constructs a Worker. ledger may be nil when the summarizer runs
// without access to the collector's ledger.
func NewWorker(q Queue, llm LLM, res Results, ldg Ledger, cfg Config, log *zap.Logger) *Worker {
	if cfg.Consumer == "" {
		cfg.Consumer = "summarizer-1"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Block <= 0 {
		cfg.Block = 5 * time.Second
	}
	return &Worker{queue: q, llm: llm, results: res, ledger: ldg, cfg: cfg, log: log}
}

// Run drains the queue until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("summarizer started",
		zap.String("consumer", w.cfg.Consumer),
		zap.Int64("batch_size", w.cfg.BatchSize))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := w.Drain(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.log.Warn("drain failed, continuing", zap.Error(err))
			// Back off briefly so a down queue doesn't spin the loop.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(w.cfg.Block):
			}
		}
	}
}

// Drain receives one batch and processes each message. Returns the number of
// messages handled (including dropped malformed ones).
func (w *Worker) Drain(ctx context.Context) (int, error) {
	messages, err := w.queue.Receive(ctx, w.cfg.Consumer, w.cfg.BatchSize, w.cfg.Block)
	if err != nil {
		return 0, err
	}

	for _, msg := range messages {
		w.processMessage(ctx, msg)
	}
	return len(messages), nil
}

// processMessage handles one envelope. The message is deleted after the
// processing attempt whether or not the LLM call succeeded; only a results
// store failure leaves it pending, so the queue's redelivery covers the one
// failure mode where retrying can actually help.
func (w *Worker) processMessage(ctx context.Context, msg queue.Message) {
	qm, err := msg.Decode()
	if err != nil {
		// Drop over starve: a permanently broken payload must not be
		// redelivered forever. The collector's data remains recoverable.
		w.log.Warn("dropping malformed message", zap.String("id", msg.ID), zap.Error(err))
		w.deleteMessage(ctx, msg)
		return
	}

	text := qm.Payload.Text()

	summary, err := w.llm.Summarize(ctx, text)
	if err != nil {
		// Degrade to an un-summarized record rather than halting.
		w.log.Warn("llm call failed, storing failure record",
			zap.String("url", qm.URL),
			zap.Error(err))
		summary = ""
	}
	w.pace(ctx)

	company, role := extract.CompanyRole(summary)

	post := model.SummarizedPost{
		URL:       qm.URL,
		Hash:      qm.Hash,
		Company:   company,
		Role:      role,
		Summary:   summary,
		RawPost:   text,
		Timestamp: time.Now().UTC(),
	}

	if err := w.results.Upsert(ctx, post); err != nil {
		// Leave the message pending: redelivery after the visibility
		// window retries the store write.
		w.log.Error("results upsert failed, leaving message for redelivery",
			zap.String("url", qm.URL),
			zap.Error(err))
		return
	}

	if results.HasExperience(summary) && company != extract.Unknown {
		if err := w.results.RecordCompanyRole(ctx, company, role); err != nil {
			w.log.Warn("company index update failed",
				zap.String("company", company),
				zap.Error(err))
		}
	}

	if w.ledger != nil {
		if err := w.ledger.MarkProcessed(ctx, qm.URL); err != nil {
			w.log.Warn("mark processed failed", zap.String("url", qm.URL), zap.Error(err))
		}
	}

	w.deleteMessage(ctx, msg)
	w.log.Info("message processed",
		zap.String("url", qm.URL),
		zap.String("company", company),
		zap.String("role", role),
		zap.Bool("has_experience", results.HasExperience(summary)))
}

func (w *Worker) deleteMessage(ctx context.Context, msg queue.Message) {
	if err := w.queue.Delete(ctx, msg); err != nil {
		w.log.Warn("queue delete failed", zap.String("id", msg.ID), zap.Error(err))
	}
}

// pace enforces the fixed inter-call delay the external rate limit requires.
func (w *Worker) pace(ctx context.Context) {
	if w.cfg.Pacing <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(w.cfg.Pacing):
	}
}
