// Package queue implements the ingestion queue on Redis Streams.
//
// Delivery is at-least-once: a consumed message stays pending until it is
// acknowledged, and a message left pending longer than the visibility window
// is reclaimed and redelivered. Messages redelivered more than the configured
// attempt limit are moved to a dead-letter stream instead of being retried
// forever.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Steven20210/reddit-interviews/internal/model"
)

const (
	// messageField is the stream field holding the serialized envelope.
	messageField = "message"

	// enqueuedAtField records when the envelope was produced.
	enqueuedAtField = "enqueued_at"

	// maxPendingCheck bounds how many pending entries are examined per
	// receive call.
	maxPendingCheck = 100
)

// Config holds queue settings.
type Config struct {
	Stream      string        // stream key, e.g. "ingest:posts"
	Group       string        // consumer group name
	Visibility  time.Duration // idle time before a pending message is redelivered
	MaxAttempts int64         // deliveries before dead-lettering (0 = never)
}

// Queue is a single-stream producer/consumer pair over one Redis client.
type Queue struct {
	rdb *redis.Client
	cfg Config
}

// Message is one received envelope. The payload is kept raw so a malformed
// body can still be acknowledged and dropped by the consumer.
type Message struct {
	ID         string
	Raw        string
	RetryCount int64
}

// Decode parses the envelope payload.
func (m *Message) Decode() (model.QueuedMessage, error) {
	var qm model.QueuedMessage
	if err := json.Unmarshal([]byte(m.Raw), &qm); err != nil {
		return model.QueuedMessage{}, fmt.Errorf("decode message %s: %w", m.ID, err)
	}
	return qm, nil
}

// New constructs a Queue.
func New(rdb *redis.Client, cfg Config) *Queue {
	if cfg.Visibility <= 0 {
		cfg.Visibility = 5 * time.Minute
	}
	return &Queue{rdb: rdb, cfg: cfg}
}

// DeadStream returns the dead-letter stream key.
func (q *Queue) DeadStream() string {
	return q.cfg.Stream + ":dead"
}

// Ensure creates the stream and consumer group. Creating an existing group
// is a no-op, not an error.
func (q *Queue) Ensure(ctx context.Context) error {
	err := q.rdb.XGroupCreateMkStream(ctx, q.cfg.Stream, q.cfg.Group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}

// Enqueue appends one envelope to the stream and returns its message ID.
func (q *Queue) Enqueue(ctx context.Context, msg model.QueuedMessage) (string, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("serialize message: %w", err)
	}

	id, err := q.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: q.cfg.Stream,
		Values: map[string]any{
			messageField:    string(payload),
			enqueuedAtField: time.Now().UTC().Format(time.RFC3339),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("enqueue to %s: %w", q.cfg.Stream, err)
	}
	return id, nil
}

// Receive returns up to batch messages for the given consumer. Pending
// messages past the visibility window are reclaimed first; poisoned ones are
// dead-lettered along the way. When nothing is pending, new messages are
// read, blocking up to block.
func (q *Queue) Receive(ctx context.Context, consumer string, batch int64, block time.Duration) ([]Message, error) {
	reclaimed, err := q.reclaimPending(ctx, consumer)
	if err != nil {
		return nil, err
	}
	if len(reclaimed) > 0 {
		return reclaimed, nil
	}

	streams, err := q.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.cfg.Group,
		Consumer: consumer,
		Streams:  []string{q.cfg.Stream, ">"},
		Count:    batch,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // nothing available
		}
		return nil, fmt.Errorf("read from %s: %w", q.cfg.Stream, err)
	}

	var messages []Message
	for _, stream := range streams {
		for _, xmsg := range stream.Messages {
			if m, ok := parseStreamMessage(xmsg); ok {
				messages = append(messages, m)
			}
		}
	}
	return messages, nil
}

// Delete acknowledges a message, removing it from the pending list. Called
// after every processing attempt, success or caught failure.
func (q *Queue) Delete(ctx context.Context, msg Message) error {
	if err := q.rdb.XAck(ctx, q.cfg.Stream, q.cfg.Group, msg.ID).Err(); err != nil {
		return fmt.Errorf("ack %s: %w", msg.ID, err)
	}
	return nil
}

// Depth returns the current stream length.
func (q *Queue) Depth(ctx context.Context) (int64, error) {
	return q.rdb.XLen(ctx, q.cfg.Stream).Result()
}

// PendingCount returns the number of delivered-but-unacknowledged messages.
func (q *Queue) PendingCount(ctx context.Context) (int64, error) {
	pending, err := q.rdb.XPending(ctx, q.cfg.Stream, q.cfg.Group).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	return pending.Count, nil
}

// reclaimPending claims messages idle past the visibility window. Entries
// that have exceeded MaxAttempts deliveries are copied to the dead-letter
// stream and acknowledged instead of being returned.
func (q *Queue) reclaimPending(ctx context.Context, consumer string) ([]Message, error) {
	entries, err := q.rdb.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: q.cfg.Stream,
		Group:  q.cfg.Group,
		Start:  "-",
		End:    "+",
		Count:  maxPendingCheck,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("pending entries: %w", err)
	}

	var idsToReclaim []string
	retryCounts := make(map[string]int64, len(entries))
	for _, entry := range entries {
		if entry.Idle >= q.cfg.Visibility {
			idsToReclaim = append(idsToReclaim, entry.ID)
			retryCounts[entry.ID] = entry.RetryCount
		}
	}
	if len(idsToReclaim) == 0 {
		return nil, nil
	}

	claimed, err := q.rdb.XClaim(ctx, &redis.XClaimArgs{
		Stream:   q.cfg.Stream,
		Group:    q.cfg.Group,
		Consumer: consumer,
		MinIdle:  q.cfg.Visibility,
		Messages: idsToReclaim,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("claim pending: %w", err)
	}

	deliver, dead, ackOnly := classifyClaimed(claimed, retryCounts, q.cfg.MaxAttempts)

	for _, id := range ackOnly {
		if err := q.Delete(ctx, Message{ID: id}); err != nil {
			return nil, err
		}
	}
	for _, m := range dead {
		if err := q.deadLetter(ctx, m); err != nil {
			return nil, err
		}
	}
	return deliver, nil
}

// classifyClaimed splits claimed entries into deliverable messages, poisoned
// ones bound for the dead-letter stream, and IDs to acknowledge outright. An
// entry without a payload field can be neither processed nor dead-lettered;
// left pending it would be reclaimed on every receive, so it is acked away.
func classifyClaimed(claimed []redis.XMessage, retryCounts map[string]int64, maxAttempts int64) (deliver, dead []Message, ackOnly []string) {
	for _, xmsg := range claimed {
		m, ok := parseStreamMessage(xmsg)
		if !ok {
			ackOnly = append(ackOnly, xmsg.ID)
			continue
		}
		m.RetryCount = retryCounts[xmsg.ID]

		if maxAttempts > 0 && m.RetryCount >= maxAttempts {
			dead = append(dead, m)
			continue
		}
		deliver = append(deliver, m)
	}
	return deliver, dead, ackOnly
}

// deadLetter copies a poisoned message to the dead-letter stream, then
// acknowledges the original so it stops being redelivered.
func (q *Queue) deadLetter(ctx context.Context, msg Message) error {
	err := q.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: q.DeadStream(),
		Values: map[string]any{
			messageField: msg.Raw,
			"origin_id":  msg.ID,
			"attempts":   msg.RetryCount,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("dead-letter %s: %w", msg.ID, err)
	}
	return q.Delete(ctx, msg)
}

func parseStreamMessage(xmsg redis.XMessage) (Message, bool) {
	raw, ok := xmsg.Values[messageField].(string)
	if !ok {
		return Message{}, false
	}
	return Message{ID: xmsg.ID, Raw: raw}, true
}
