// Package llm implements the client for the external completion service
// (an OpenAI-compatible chat completions API).
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Steven20210/reddit-interviews/internal/retry"
)

const httpTimeout = 60 * time.Second

// promptTemplate is the fixed instruction contract: bullet-point summary of
// the poster's own interview experience, or the exact sentinel "None" when
// no first-person experience is described.
const promptTemplate = `
You are an information extractor.
Extract details about interview experiences only if the text explicitly describes the interview experience of the poster themselves.

If the text is only asking for advice, speculation, or does not describe the interview experience directly,
respond with exactly:

None

Do not wrap "None" in JSON or code blocks.
ELSE Summarize the interview experience in concise bullet points.
MAKE sure to include the company name and role if mentioned.
Label them as "Company:" and "Role:" lines.
Text:
%s
`

// Sentinel is the literal completion signaling "no interview experience
// described".
const Sentinel = "None"

// Config holds the completion service settings.
type Config struct {
	APIKey      string
	BaseURL     string // e.g. "https://api.groq.com/openai/v1"
	Model       string
	MaxTokens   int
	Temperature float64
}

// Client calls the chat completions endpoint. Calls are serial by design:
// the external rate limit makes concurrent requests counterproductive.
type Client struct {
	cfg      Config
	client   *http.Client
	retryCfg retry.Config
}

// NewClient constructs a Client. The API key must be set.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: API key is required")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("llm: base URL is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm: model is required")
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.IsRetryable = isRetryable

	return &Client{
		cfg:      cfg,
		client:   &http.Client{Timeout: httpTimeout},
		retryCfg: retryCfg,
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// statusError carries the HTTP status so the retry policy can distinguish
// rate limiting and server errors from permanent request failures.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("llm returned %d: %s", e.status, e.body)
}

func isRetryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.status == http.StatusTooManyRequests || se.status >= http.StatusInternalServerError
	}
	return retry.IsTransient(err)
}

// Summarize sends the post text through the fixed instruction contract and
// returns the completion string. Rate-limit and server errors are retried
// with backoff before the error is surfaced.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	var completion string
	err := retry.Do(ctx, c.retryCfg, func() error {
		var callErr error
		completion, callErr = c.complete(ctx, fmt.Sprintf(promptTemplate, text))
		return callErr
	})
	return completion, err
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.cfg.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http POST: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &statusError{status: resp.StatusCode, body: string(body)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("json unmarshal: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("llm response contained no choices")
	}

	return parsed.Choices[0].Message.Content, nil
}
