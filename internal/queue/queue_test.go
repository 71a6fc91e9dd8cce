package queue_test

import (
	"testing"

	"github.com/Steven20210/reddit-interviews/internal/queue"
)

// Stream operations need a live Redis; only the envelope parsing is tested
// here.

func TestMessageDecode(t *testing.T) {
	msg := queue.Message{
		ID:  "1-0",
		Raw: `{"url":"https://example.com/p1","hash":"abc123","payload":{"title":"Amazon onsite","body":"Round 1 was LC 42"}}`,
	}

	qm, err := msg.Decode()
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if qm.URL != "https://example.com/p1" {
		t.Errorf("URL = %q", qm.URL)
	}
	if qm.Hash != "abc123" {
		t.Errorf("Hash = %q", qm.Hash)
	}
	if qm.Payload.Title != "Amazon onsite" {
		t.Errorf("Payload.Title = %q", qm.Payload.Title)
	}
}

func TestMessageDecode_Malformed(t *testing.T) {
	msg := queue.Message{ID: "1-0", Raw: "{not json"}
	if _, err := msg.Decode(); err == nil {
		t.Error("Decode accepted a malformed payload")
	}
}
