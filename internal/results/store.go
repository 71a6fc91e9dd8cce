// Package results persists summarized posts and the per-company role index
// consumed by the search API. The search API only ever reads from these
// collections.
package results

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Steven20210/reddit-interviews/internal/llm"
	"github.com/Steven20210/reddit-interviews/internal/model"
)

const (
	postsCollection     = "summarized_posts"
	companiesCollection = "company_metadata"
)

// Store wraps the MongoDB collections backing the search API.
type Store struct {
	posts     *mongo.Collection
	companies *mongo.Collection
}

// New constructs a Store over the given database.
func New(client *mongo.Client, database string) *Store {
	db := client.Database(database)
	return &Store{
		posts:     db.Collection(postsCollection),
		companies: db.Collection(companiesCollection),
	}
}

// EnsureIndexes creates the unique indexes both collections rely on. The
// unique URL index is the only mutual-exclusion mechanism across concurrent
// summarizer instances.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.posts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "url", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create url index: %w", err)
	}

	_, err = s.companies.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "company", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create company index: %w", err)
	}
	return nil
}

// Upsert writes a summarized post keyed by URL. Re-submitting identical
// content leaves the stored document unchanged; changed content replaces it
// in place. A duplicate-key race with another summarizer is absorbed: the
// loser's write is the same content the winner already stored.
func (s *Store) Upsert(ctx context.Context, post model.SummarizedPost) error {
	if post.Timestamp.IsZero() {
		post.Timestamp = time.Now().UTC()
	}

	filter := bson.M{"url": post.URL}
	update := bson.M{"$set": post}
	opts := options.Update().SetUpsert(true)

	if _, err := s.posts.UpdateOne(ctx, filter, update, opts); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("upsert summarized post: %w", err)
	}
	return nil
}

// RecordCompanyRole adds a role to a company's observed-role set. Called for
// every persisted summary with a resolved company so the facet index stays
// current without a rebuild step.
func (s *Store) RecordCompanyRole(ctx context.Context, company, role string) error {
	filter := bson.M{"company": company}
	update := bson.M{"$addToSet": bson.M{"roles": role}}
	opts := options.Update().SetUpsert(true)

	if _, err := s.companies.UpdateOne(ctx, filter, update, opts); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("record company role: %w", err)
	}
	return nil
}

// SearchOptions narrows a Search call.
type SearchOptions struct {
	Query   string // case-insensitive substring over summary and raw post
	Company string // exact match
	Role    string // exact match
	Skip    int64
	Limit   int64
}

// Search returns summarized posts matching the options, newest first.
// Posts without a genuine summary (sentinel or empty) are always excluded.
func (s *Store) Search(ctx context.Context, opts SearchOptions) ([]model.SummarizedPost, error) {
	filter := bson.M{
		"summary": bson.M{"$nin": sentinelValues()},
	}
	if opts.Query != "" {
		filter["$or"] = bson.A{
			bson.M{"summary": bson.M{"$regex": opts.Query, "$options": "i"}},
			bson.M{"raw_post": bson.M{"$regex": opts.Query, "$options": "i"}},
		}
	}
	if opts.Company != "" {
		filter["company"] = opts.Company
	}
	if opts.Role != "" {
		filter["role"] = opts.Role
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(opts.Skip).
		SetLimit(limit)

	cursor, err := s.posts.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("search summarized posts: %w", err)
	}
	defer cursor.Close(ctx)

	var posts []model.SummarizedPost
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("decode summarized posts: %w", err)
	}
	return posts, nil
}

// Companies returns the full facet index.
func (s *Store) Companies(ctx context.Context) ([]model.CompanyMetadata, error) {
	cursor, err := s.companies.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "company", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer cursor.Close(ctx)

	var companies []model.CompanyMetadata
	if err := cursor.All(ctx, &companies); err != nil {
		return nil, fmt.Errorf("decode companies: %w", err)
	}
	return companies, nil
}

// Count returns the number of stored summarized posts.
func (s *Store) Count(ctx context.Context) (int64, error) {
	n, err := s.posts.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count summarized posts: %w", err)
	}
	return n, nil
}

// HasExperience reports whether a summary is a genuine digest rather than
// the sentinel or an empty/failed result. The search filter excludes
// everything this rejects.
func HasExperience(summary string) bool {
	trimmed := strings.TrimSpace(summary)
	return trimmed != "" && trimmed != llm.Sentinel
}

func sentinelValues() bson.A {
	// The legacy pipeline stored "None \n" verbatim in some records; keep
	// excluding it.
	return bson.A{"", llm.Sentinel, llm.Sentinel + " \n", nil}
}
