package dedup_test

import (
	"testing"
	"time"

	"github.com/Steven20210/reddit-interviews/internal/dedup"
	"github.com/Steven20210/reddit-interviews/internal/model"
)

// ── Canonicalize ───────────────────────────────────────────────────────────

func TestCanonicalize_SortsKeysRecursively(t *testing.T) {
	got, err := dedup.Canonicalize(map[string]any{
		"b": 1,
		"a": map[string]any{"d": []any{1, 2}, "c": "x"},
	})
	if err != nil {
		t.Fatalf("Canonicalize returned error: %v", err)
	}
	want := `{"a":{"c":"x","d":[1,2]},"b":1}`
	if got != want {
		t.Errorf("Canonicalize = %s, want %s", got, want)
	}
}

// ── Hash ───────────────────────────────────────────────────────────────────

func TestHash_IndependentOfFieldOrder(t *testing.T) {
	// The same logical content expressed as a struct and as a map with a
	// different key order must hash identically.
	type ordered struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}

	structHash, err := dedup.Hash(ordered{Title: "t", Body: "b"})
	if err != nil {
		t.Fatalf("Hash(struct) returned error: %v", err)
	}
	mapHash, err := dedup.Hash(map[string]string{"body": "b", "title": "t"})
	if err != nil {
		t.Fatalf("Hash(map) returned error: %v", err)
	}
	if structHash != mapHash {
		t.Errorf("struct hash %s != map hash %s", structHash, mapHash)
	}
}

func TestHash_ChangesWithContent(t *testing.T) {
	base := model.RawCandidate{
		Source:     "leetcode",
		ExternalID: "abc",
		Title:      "Amazon OA experience",
		Body:       "Round 1 was LC 42",
		CreatedAt:  time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		URL:        "https://example.com/p/abc",
	}

	h1, err := dedup.Hash(base)
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	same := base
	h2, err := dedup.Hash(same)
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if h1 != h2 {
		t.Error("identical candidates produced different hashes")
	}

	changed := base
	changed.Body = "Round 1 was LC 43"
	h3, err := dedup.Hash(changed)
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if h1 == h3 {
		t.Error("changed body produced an identical hash")
	}
}

func TestHash_CommentsAffectHash(t *testing.T) {
	base := model.RawCandidate{URL: "u", Title: "t"}
	withComment := base
	withComment.TopComments = []model.Comment{{ID: "c1", Body: "it was LC 1"}}

	h1, _ := dedup.Hash(base)
	h2, _ := dedup.Hash(withComment)
	if h1 == h2 {
		t.Error("adding a comment did not change the hash")
	}
}
