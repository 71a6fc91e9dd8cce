// Package ledger persists the URL→hash ledger used for deduplication and
// change detection. The ledger itself is the source of truth: a candidate is
// a duplicate exactly when its URL already exists with the same content hash.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Outcome is the tagged result of an upsert. Only Inserted and Updated
// trigger a downstream enqueue.
type Outcome int

const (
	// Unchanged means the URL already exists with the same content hash.
	Unchanged Outcome = iota
	// Inserted means the URL was not in the ledger before.
	Inserted
	// Updated means the URL existed but its content hash changed.
	Updated
)

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	default:
		return "unchanged"
	}
}

// Changed reports whether the upsert wrote new content — the signal that
// couples the ledger to queue population.
func (o Outcome) Changed() bool {
	return o == Inserted || o == Updated
}

const schema = `
CREATE TABLE IF NOT EXISTS posts (
	url        TEXT PRIMARY KEY,
	hash       TEXT NOT NULL,
	payload    JSONB NOT NULL,
	processed  BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Ledger wraps the posts table.
type Ledger struct {
	pool *pgxpool.Pool
}

// New constructs a Ledger.
func New(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

// Migrate creates the posts table if absent.
func (l *Ledger) Migrate(ctx context.Context) error {
	if _, err := l.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create posts table: %w", err)
	}
	return nil
}

// Upsert writes (url, hash, payload) and reports what happened. Re-submitting
// identical content is a no-op; changed content replaces the row in place and
// clears the processed flag so the post is summarized again.
//
// A unique-constraint race with a concurrent writer is absorbed as Unchanged:
// the row now exists with the content this caller was about to write.
func (l *Ledger) Upsert(ctx context.Context, url, hash string, payload []byte) (Outcome, error) {
	var existing string
	err := l.pool.QueryRow(ctx, `SELECT hash FROM posts WHERE url = $1`, url).Scan(&existing)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		tag, insertErr := l.pool.Exec(ctx,
			`INSERT INTO posts (url, hash, payload)
			 VALUES ($1, $2, $3::jsonb)
			 ON CONFLICT (url) DO NOTHING`,
			url, hash, payload,
		)
		if insertErr != nil {
			return Unchanged, fmt.Errorf("insert post: %w", insertErr)
		}
		if tag.RowsAffected() == 0 {
			return Unchanged, nil // lost the race, someone else wrote it
		}
		return Inserted, nil

	case err != nil:
		return Unchanged, fmt.Errorf("select post hash: %w", err)

	case existing == hash:
		return Unchanged, nil

	default:
		_, updateErr := l.pool.Exec(ctx,
			`UPDATE posts
			 SET hash = $2, payload = $3::jsonb, processed = FALSE, updated_at = now()
			 WHERE url = $1`,
			url, hash, payload,
		)
		if updateErr != nil {
			return Unchanged, fmt.Errorf("update post: %w", updateErr)
		}
		return Updated, nil
	}
}

// MarkProcessed flags a ledger row once the summarizer has handled it.
func (l *Ledger) MarkProcessed(ctx context.Context, url string) error {
	if _, err := l.pool.Exec(ctx,
		`UPDATE posts SET processed = TRUE, updated_at = now() WHERE url = $1`, url,
	); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

// Count returns the number of ledger rows, used by the trigger endpoint's
// summary response.
func (l *Ledger) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := l.pool.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}
