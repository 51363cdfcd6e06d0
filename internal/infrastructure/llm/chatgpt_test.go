package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"NewsRecommender/internal/config"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("missing bearer token")
		}
		var req struct {
			Model    string        `json:"model"`
			Messages []chatMessage `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "gpt-test" || len(req.Messages) != 2 || req.Messages[1].Content != "long article" {
			t.Errorf("unexpected request: %+v", req)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"  A short summary. "}}]}`)
	}))
	t.Cleanup(srv.Close)

	client := NewChatGPTClient(config.ChatGPTConfig{Endpoint: srv.URL, Model: "gpt-test", APIKey: "key"})
	got, err := client.Summarize(context.Background(), "long article")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if got != "A short summary." {
		t.Fatalf("unexpected summary: %q", got)
	}
}

func TestSummarizeErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("empty") != "" {
			fmt.Fprint(w, `{"choices":[]}`)
			return
		}
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	client := NewChatGPTClient(config.ChatGPTConfig{Endpoint: srv.URL, Model: "m", APIKey: "k"})
	if _, err := client.Summarize(context.Background(), "x"); err == nil {
		t.Fatalf("expected status error")
	}

	client = NewChatGPTClient(config.ChatGPTConfig{Endpoint: srv.URL + "?empty=1", Model: "m", APIKey: "k"})
	if _, err := client.Summarize(context.Background(), "x"); !errors.Is(err, ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}

	if _, err := NewChatGPTClient(config.ChatGPTConfig{}).Summarize(context.Background(), "x"); err == nil {
		t.Fatalf("expected misconfiguration error")
	}
}
