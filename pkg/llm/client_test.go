package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kids-talk-go/internal/config"
)

func newTestClient(serverURL string) Client {
	return NewClient(config.LLMConfig{
		APIKey:  "test-key",
		BaseURL: serverURL,
		Model:   "test-model",
	})
}

func TestChatReturnsReplyText(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  Hello little one!  "}}]}`))
	}))
	defer server.Close()

	reply, err := newTestClient(server.URL).Chat(context.Background(), []Message{
		{Role: "system", Content: "be nice"},
		{Role: "user", Content: "hi"},
	}, nil)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if reply != "Hello little one!" {
		t.Fatalf("expected trimmed reply, got %q", reply)
	}

	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
	if gotReq.Stream {
		t.Fatal("expected a non-streaming request")
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Fatalf("unexpected messages: %+v", gotReq.Messages)
	}
}

func TestChatEmptyReplyIsError(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "no choices", body: `{"choices":[]}`},
		{name: "empty content", body: `{"choices":[{"message":{"content":""}}]}`},
		{name: "whitespace content", body: `{"choices":[{"message":{"content":"   "}}]}`},
	}

	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(tc.body))
		}))

		_, err := newTestClient(server.URL).Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil)
		server.Close()

		if err == nil || !strings.Contains(err.Error(), "empty reply") {
			t.Errorf("%s: expected empty-reply error, got %v", tc.name, err)
		}
	}
}

func TestChatNon200IsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Chat(context.Background(), []Message{{Role: "user", Content: "hi"}}, nil)
	if err == nil || !strings.Contains(err.Error(), "non-200") {
		t.Fatalf("expected non-200 error, got %v", err)
	}
}
