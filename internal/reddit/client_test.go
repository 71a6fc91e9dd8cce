package reddit_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Steven20210/reddit-interviews/internal/reddit"
)

const searchFixture = `{
	"data": {
		"children": [
			{"kind": "t3", "data": {
				"id": "abc",
				"title": "Amazon onsite experience",
				"selftext": "Round 1 was LC 42",
				"created_utc": 1717200000,
				"author": "throwaway123",
				"url": "https://example.com/external",
				"permalink": "/r/leetcode/comments/abc/amazon_onsite/",
				"num_comments": 12
			}},
			{"kind": "t3", "data": {
				"id": "def",
				"title": "No selftext link post",
				"selftext": "",
				"created_utc": 1717200100,
				"author": "other",
				"url": "",
				"permalink": "/r/leetcode/comments/def/link_post/",
				"num_comments": 0
			}}
		]
	}
}`

const commentsFixture = `[
	{"data": {"children": [
		{"kind": "t3", "data": {"id": "abc", "title": "the post itself"}}
	]}},
	{"data": {"children": [
		{"kind": "t1", "data": {"id": "c1", "body": "it was LC 215", "author": "helper", "score": 10, "created_utc": 1717200200, "permalink": "/r/leetcode/comments/abc/c1/"}},
		{"kind": "t1", "data": {"id": "c2", "body": "[deleted]", "author": "[deleted]", "score": 3}},
		{"kind": "t1", "data": {"id": "c3", "body": "[removed]", "author": "mod", "score": 1}},
		{"kind": "more", "data": {"count": 40}},
		{"kind": "t1", "data": {"id": "c4", "body": "congrats on the offer", "author": "friend", "score": 5, "permalink": "/r/leetcode/comments/abc/c4/"}},
		{"kind": "t1", "data": {"id": "c5", "body": "never returned, over the limit", "author": "late", "score": 1}}
	]}}
]`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/r/leetcode/search.json", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("restrict_sr") != "1" {
			t.Error("search request missing restrict_sr=1")
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("search request missing User-Agent")
		}
		w.Write([]byte(searchFixture))
	})
	mux.HandleFunc("/comments/abc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(commentsFixture))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// ── Search ─────────────────────────────────────────────────────────────────

func TestSearch_ParsesListing(t *testing.T) {
	srv := newTestServer(t)
	client := reddit.NewClient(srv.URL, "test-agent")

	posts, err := client.Search(context.Background(), "leetcode", "interview experience", "day", 100)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("Search returned %d posts, want 2", len(posts))
	}

	first := posts[0]
	if first.ExternalID != "abc" {
		t.Errorf("ExternalID = %q, want %q", first.ExternalID, "abc")
	}
	if first.Title != "Amazon onsite experience" {
		t.Errorf("Title = %q", first.Title)
	}
	if first.Source != "leetcode" {
		t.Errorf("Source = %q, want the subreddit", first.Source)
	}
	if first.URL != "https://example.com/external" {
		t.Errorf("URL = %q, want the post URL", first.URL)
	}
	if first.CommentCount != 12 {
		t.Errorf("CommentCount = %d, want 12", first.CommentCount)
	}

	// An empty url falls back to baseURL + permalink.
	second := posts[1]
	if second.URL != srv.URL+"/r/leetcode/comments/def/link_post/" {
		t.Errorf("fallback URL = %q", second.URL)
	}
}

func TestSearch_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	client := reddit.NewClient(srv.URL, "test-agent")
	if _, err := client.Search(context.Background(), "leetcode", "q", "day", 10); err == nil {
		t.Error("Search returned nil for a 429 response")
	}
}

// ── TopComments ────────────────────────────────────────────────────────────

func TestTopComments_FiltersAndLimits(t *testing.T) {
	srv := newTestServer(t)
	client := reddit.NewClient(srv.URL, "test-agent")

	comments, err := client.TopComments(context.Background(), "abc", 2)
	if err != nil {
		t.Fatalf("TopComments returned error: %v", err)
	}
	// Deleted, removed, and "more" entries are skipped; the limit caps the
	// rest at 2.
	if len(comments) != 2 {
		t.Fatalf("TopComments returned %d comments, want 2", len(comments))
	}
	if comments[0].ID != "c1" || comments[1].ID != "c4" {
		t.Errorf("comment IDs = %q, %q, want c1, c4", comments[0].ID, comments[1].ID)
	}
	if comments[0].Permalink != "https://reddit.com/r/leetcode/comments/abc/c1/" {
		t.Errorf("Permalink = %q", comments[0].Permalink)
	}
}
