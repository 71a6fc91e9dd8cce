package summarizer_test

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Steven20210/reddit-interviews/internal/collector"
	"github.com/Steven20210/reddit-interviews/internal/ledger"
	"github.com/Steven20210/reddit-interviews/internal/model"
	"github.com/Steven20210/reddit-interviews/internal/queue"
	"github.com/Steven20210/reddit-interviews/internal/summarizer"
)

// ── Collector-side fakes ───────────────────────────────────────────────────

type pipelineSource struct {
	posts []model.RawCandidate
}

func (s *pipelineSource) Search(context.Context, string, string, string, int) ([]model.RawCandidate, error) {
	return s.posts, nil
}

func (s *pipelineSource) TopComments(context.Context, string, int) ([]model.Comment, error) {
	return nil, nil
}

// pipelineLedger serves both sides: dedup upserts for the collector and the
// processed flag for the summarizer.
type pipelineLedger struct {
	hashes    map[string]string
	processed []string
}

func (l *pipelineLedger) Upsert(_ context.Context, url, hash string, _ []byte) (ledger.Outcome, error) {
	existing, ok := l.hashes[url]
	switch {
	case !ok:
		l.hashes[url] = hash
		return ledger.Inserted, nil
	case existing == hash:
		return ledger.Unchanged, nil
	default:
		l.hashes[url] = hash
		return ledger.Updated, nil
	}
}

func (l *pipelineLedger) MarkProcessed(_ context.Context, url string) error {
	l.processed = append(l.processed, url)
	return nil
}

// captureQueue records enqueued envelopes as the stream messages the
// consumer side would receive.
type captureQueue struct {
	messages []queue.Message
}

func (q *captureQueue) Enqueue(_ context.Context, msg model.QueuedMessage) (string, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}
	id := fmt.Sprintf("%d-0", len(q.messages)+1)
	q.messages = append(q.messages, queue.Message{ID: id, Raw: string(raw)})
	return id, nil
}

// ── Collector → summarizer ─────────────────────────────────────────────────

func TestCollectedPostFlowsThroughToResults(t *testing.T) {
	// Two posts fetched: one passes the relevance gate, one does not. The
	// survivor's envelope is then drained and must come out the other end as
	// a stored summary with extracted company and role.
	source := &pipelineSource{
		posts: []model.RawCandidate{
			{
				Source:     "leetcode",
				ExternalID: "p1",
				Title:      "Foo onsite writeup",
				Body:       strings.Repeat("interview detail ", 40),
				URL:        "https://example.com/p1",
			},
			{
				Source:     "leetcode",
				ExternalID: "p2",
				Title:      "hello",
				Body:       "short",
				URL:        "https://example.com/p2",
			},
		},
	}
	ldg := &pipelineLedger{hashes: make(map[string]string)}
	capture := &captureQueue{}

	cw := collector.NewWorker(source, ldg, capture, collector.Config{
		Sources:        []string{"leetcode"},
		Queries:        []string{"interview experience"},
		PostLimit:      100,
		CommentLimit:   3,
		MinLength:      400,
		ScoreThreshold: 3,
	}, zap.NewNop())

	stats, err := cw.RunPass(context.Background(), "day")
	if err != nil {
		t.Fatalf("RunPass returned error: %v", err)
	}
	if stats.Fetched != 2 {
		t.Errorf("Fetched = %d, want 2", stats.Fetched)
	}
	if len(capture.messages) != 1 {
		t.Fatalf("collector enqueued %d messages, want 1", len(capture.messages))
	}

	q := &fakeQueue{messages: capture.messages}
	llm := &fakeLLM{response: "- Company: Foo\n- Role: SDE II\n- Asked about trees"}
	res := newFakeResults()

	sw := summarizer.NewWorker(q, llm, res, ldg, summarizer.Config{
		Consumer:  "test",
		BatchSize: 10,
		Block:     time.Millisecond,
	}, zap.NewNop())

	n, err := sw.Drain(context.Background())
	if err != nil {
		t.Fatalf("Drain returned error: %v", err)
	}
	if n != 1 {
		t.Errorf("Drain handled %d messages, want 1", n)
	}

	if len(res.upserts) != 1 {
		t.Fatalf("stored %d posts, want 1", len(res.upserts))
	}
	post := res.upserts[0]
	if post.URL != "https://example.com/p1" {
		t.Errorf("stored URL = %q, want the accepted post", post.URL)
	}
	if post.Company != "Foo" {
		t.Errorf("company = %q, want %q", post.Company, "Foo")
	}
	if post.Role != "SDE II" {
		t.Errorf("role = %q, want %q", post.Role, "SDE II")
	}
	if post.Hash != ldg.hashes["https://example.com/p1"] {
		t.Error("stored hash does not match the ledger's hash for the URL")
	}
	if !strings.Contains(post.RawPost, "Foo onsite writeup") {
		t.Error("stored raw post does not carry the collected text")
	}
	if len(q.deleted) != 1 {
		t.Errorf("deleted %d messages, want 1", len(q.deleted))
	}
	if len(ldg.processed) != 1 || ldg.processed[0] != "https://example.com/p1" {
		t.Errorf("processed = %v, want the accepted post's URL", ldg.processed)
	}
}
