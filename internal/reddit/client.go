// Package reddit implements the source platform client. It talks to the
// public Reddit JSON API: one call per (subreddit, query) search, plus one
// call per post for its top comments.
//
// Reddit is rate-limited and occasionally flaky; callers are expected to
// treat every method as best-effort and skip over failures.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Steven20210/reddit-interviews/internal/model"
)

const (
	defaultBaseURL = "https://www.reddit.com"
	httpTimeout    = 15 * time.Second
)

// Client fetches posts and comments from the Reddit JSON API.
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

// NewClient constructs a Client with a shared HTTP client. baseURL is
// overridable for tests; pass "" for the real API.
func NewClient(baseURL, userAgent string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if userAgent == "" {
		userAgent = "interviewsdb-bot/0.1"
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: httpTimeout},
	}
}

// listing mirrors the Reddit JSON API envelope.
type listing struct {
	Data struct {
		Children []struct {
			Kind string          `json:"kind"`
			Data json.RawMessage `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// postData mirrors a single search result.
type postData struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	CreatedUTC  float64 `json:"created_utc"`
	Author      string  `json:"author"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	NumComments int     `json:"num_comments"`
}

// commentData mirrors a single top-level comment.
type commentData struct {
	ID         string  `json:"id"`
	Body       string  `json:"body"`
	Author     string  `json:"author"`
	Score      int     `json:"score"`
	CreatedUTC float64 `json:"created_utc"`
	Permalink  string  `json:"permalink"`
}

// Search returns up to limit posts matching query in the given subreddit,
// sorted by top within timeFilter. Comments are not fetched here.
func (c *Client) Search(ctx context.Context, subreddit, query, timeFilter string, limit int) ([]model.RawCandidate, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("restrict_sr", "1")
	params.Set("sort", "top")
	params.Set("t", timeFilter)
	params.Set("limit", strconv.Itoa(limit))

	endpoint := fmt.Sprintf("%s/r/%s/search.json?%s", c.baseURL, url.PathEscape(subreddit), params.Encode())

	var result listing
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, fmt.Errorf("search r/%s: %w", subreddit, err)
	}

	candidates := make([]model.RawCandidate, 0, len(result.Data.Children))
	for _, child := range result.Data.Children {
		var p postData
		if err := json.Unmarshal(child.Data, &p); err != nil {
			continue
		}

		postURL := p.URL
		if postURL == "" {
			postURL = c.baseURL + p.Permalink
		}

		candidates = append(candidates, model.RawCandidate{
			Source:       subreddit,
			ExternalID:   p.ID,
			Title:        p.Title,
			Body:         p.Selftext,
			CreatedAt:    time.Unix(int64(p.CreatedUTC), 0).UTC(),
			Author:       p.Author,
			URL:          postURL,
			CommentCount: p.NumComments,
		})
	}

	return candidates, nil
}

// TopComments returns up to limit top-level comments for a post, sorted by
// score, with removed/deleted bodies excluded.
func (c *Client) TopComments(ctx context.Context, postID string, limit int) ([]model.Comment, error) {
	params := url.Values{}
	params.Set("sort", "top")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("depth", "1")

	endpoint := fmt.Sprintf("%s/comments/%s.json?%s", c.baseURL, url.PathEscape(postID), params.Encode())

	// The comments endpoint returns two listings: the post itself, then the
	// comment tree.
	var listings []listing
	if err := c.getJSON(ctx, endpoint, &listings); err != nil {
		return nil, fmt.Errorf("comments for %s: %w", postID, err)
	}
	if len(listings) < 2 {
		return nil, nil
	}

	comments := make([]model.Comment, 0, limit)
	for _, child := range listings[1].Data.Children {
		if child.Kind != "t1" {
			continue // "more" stubs and other non-comment nodes
		}
		var cd commentData
		if err := json.Unmarshal(child.Data, &cd); err != nil {
			continue
		}
		if cd.Body == "" || cd.Body == "[deleted]" || cd.Body == "[removed]" {
			continue
		}

		author := cd.Author
		if author == "" {
			author = "[deleted]"
		}

		comments = append(comments, model.Comment{
			ID:        cd.ID,
			Body:      cd.Body,
			Author:    author,
			Score:     cd.Score,
			CreatedAt: time.Unix(int64(cd.CreatedUTC), 0).UTC(),
			Permalink: "https://reddit.com" + cd.Permalink,
		})
		if len(comments) >= limit {
			break
		}
	}

	return comments, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reddit returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("json unmarshal: %w", err)
	}
	return nil
}
