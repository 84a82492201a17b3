package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jaychia/coinmeme/internal/domain"
)

func testTemplate() *domain.Template {
	return &domain.Template{
		Name:        "drake",
		Explanation: "Rejecting one thing, preferring another.",
		Slots: []domain.Slot{
			{Field: "top_text", Description: "The rejected option"},
			{Field: "bottom_text", Description: "The preferred option"},
		},
	}
}

func testTopic() *domain.Topic {
	return &domain.Topic{Title: "Bitcoin ETF approval"}
}

// chatCompletion builds a minimal OpenAI-style response whose single choice
// carries the given content.
func chatCompletion(content string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(body)
}

func newTestCaptionService(baseURL string, maxRetries int) *CaptionService {
	return NewCaptionService(&CaptionConfig{
		Model:      "test-model",
		APIKey:     "test-key",
		BaseURL:    baseURL,
		MaxRetries: maxRetries,
	})
}

func TestCaptionService_Generate(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header: %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatCompletion(`{"top_text":"Reading the whitepaper","bottom_text":"Buying the ticker"}`)))
	}))
	defer srv.Close()

	svc := newTestCaptionService(srv.URL, 0)
	set, err := svc.Generate(context.Background(), testTopic(), testTemplate())
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}

	if len(set.Captions) != 2 {
		t.Fatalf("expected 2 captions, got %d", len(set.Captions))
	}
	// Caption order follows slot order regardless of JSON key order.
	if set.Captions[0].Field != "top_text" || set.Captions[1].Field != "bottom_text" {
		t.Errorf("unexpected caption order: %+v", set.Captions)
	}
	if set.Captions[0].Text != "Reading the whitepaper" {
		t.Errorf("unexpected caption: %q", set.Captions[0].Text)
	}

	if gotReq.Model != "test-model" {
		t.Errorf("unexpected model: %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Errorf("unexpected messages: %+v", gotReq.Messages)
	}
}

func TestCaptionService_Generate_StripsCodeFences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatCompletion("```json\n{\"top_text\":\"a\",\"bottom_text\":\"b\"}\n```")))
	}))
	defer srv.Close()

	svc := newTestCaptionService(srv.URL, 0)
	set, err := svc.Generate(context.Background(), testTopic(), testTemplate())
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	if set.Captions[0].Text != "a" || set.Captions[1].Text != "b" {
		t.Errorf("unexpected captions: %+v", set.Captions)
	}
}

func TestCaptionService_Generate_RetriesServerError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatCompletion(`{"top_text":"a","bottom_text":"b"}`)))
	}))
	defer srv.Close()

	svc := newTestCaptionService(srv.URL, 2)
	set, err := svc.Generate(context.Background(), testTopic(), testTemplate())
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
	if len(set.Captions) != 2 {
		t.Errorf("expected 2 captions, got %d", len(set.Captions))
	}
}

func TestCaptionService_Generate_NoRetryOnClientError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer srv.Close()

	svc := newTestCaptionService(srv.URL, 3)
	_, err := svc.Generate(context.Background(), testTopic(), testTemplate())
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call for non-retryable failure, got %d", calls)
	}

	var genErr *domain.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected *domain.GenerationError, got %T", err)
	}
}

func TestCaptionService_Generate_SlotMismatch(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "missing field",
			content: `{"top_text":"only one"}`,
		},
		{
			name:    "extra field",
			content: `{"top_text":"a","bottom_text":"b","extra":"c"}`,
		},
		{
			name:    "wrong field name",
			content: `{"top_text":"a","bottom":"b"}`,
		},
		{
			name:    "empty caption",
			content: `{"top_text":"a","bottom_text":"   "}`,
		},
		{
			name:    "not an object",
			content: `["a","b"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(chatCompletion(tt.content)))
			}))
			defer srv.Close()

			svc := newTestCaptionService(srv.URL, 0)
			set, err := svc.Generate(context.Background(), testTopic(), testTemplate())
			if err == nil {
				t.Fatalf("expected error, got captions %+v", set.Captions)
			}
			var genErr *domain.GenerationError
			if !errors.As(err, &genErr) {
				t.Fatalf("expected *domain.GenerationError, got %T", err)
			}
		})
	}
}

func TestCaptionService_Generate_MissingCredential(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	svc := NewCaptionService(&CaptionConfig{Model: "test-model", BaseURL: srv.URL})
	if svc.HasCredential() {
		t.Error("expected HasCredential() to be false")
	}

	_, err := svc.Generate(context.Background(), testTopic(), testTemplate())
	if !errors.Is(err, domain.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no API calls without a credential, got %d", calls)
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "bare object",
			content: `{"a":"b"}`,
			want:    `{"a":"b"}`,
		},
		{
			name:    "json fence",
			content: "```json\n{\"a\":\"b\"}\n```",
			want:    `{"a":"b"}`,
		},
		{
			name:    "plain fence",
			content: "```\n{\"a\":\"b\"}\n```",
			want:    `{"a":"b"}`,
		},
		{
			name:    "fence with leading prose",
			content: "Here you go:\n```json\n{\"a\":\"b\"}\n```",
			want:    `{"a":"b"}`,
		},
		{
			name:    "surrounding whitespace",
			content: "  {\"a\":\"b\"}\n",
			want:    `{"a":"b"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFences(tt.content); got != tt.want {
				t.Errorf("stripCodeFences() = %q, want %q", got, tt.want)
			}
		})
	}
}
