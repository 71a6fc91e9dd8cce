// Package model defines shared data structures for the ingestion pipeline.
package model

import "time"

// Comment is one top-level comment attached to a collected post.
// Removed/deleted comments are filtered out before a Comment is built.
type Comment struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	Author    string    `json:"author"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
	Permalink string    `json:"permalink"`
}

// RawCandidate is one collected post, immutable once built.
// It is scored, hashed and (if it survives both gates) enqueued as-is.
type RawCandidate struct {
	Source       string    `json:"source"`
	ExternalID   string    `json:"externalId"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	CreatedAt    time.Time `json:"createdAt"`
	Author       string    `json:"author"`
	URL          string    `json:"url"`
	CommentCount int       `json:"commentCount"`
	TopComments  []Comment `json:"topComments"`
}

// Text returns the combined text the relevance scorer and the LLM see:
// title, body and the retained top comments.
func (c *RawCandidate) Text() string {
	out := c.Title + "\n" + c.Body
	for _, cm := range c.TopComments {
		out += "\n" + cm.Body
	}
	return out
}

// QueuedMessage is the envelope placed on the ingestion queue by the
// collector and drained by the summarizer.
type QueuedMessage struct {
	URL     string       `json:"url"`
	Hash    string       `json:"hash"`
	Payload RawCandidate `json:"payload"`
}

// SummarizedPost is the search-facing record written by the summarizer.
// Company and Role are normalized categorical strings ("Unknown" when
// unresolved). Summary is either a bullet-point digest or the literal
// sentinel "None" when the post described no first-person experience.
type SummarizedPost struct {
	URL       string    `bson:"url" json:"url"`
	Hash      string    `bson:"hash" json:"hash"`
	Company   string    `bson:"company" json:"company"`
	Role      string    `bson:"role" json:"role"`
	Summary   string    `bson:"summary" json:"summary"`
	RawPost   string    `bson:"raw_post" json:"rawPost"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// CompanyMetadata is the derived per-company facet index: the set of
// distinct roles observed for a company, maintained incrementally.
type CompanyMetadata struct {
	Company string   `bson:"company" json:"company"`
	Roles   []string `bson:"roles" json:"roles"`
}
