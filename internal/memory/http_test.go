package memory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPRecallerParsesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/memories/search" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.UserID != "u1" || req.Query != "gym" || req.Limit != 5 {
			t.Errorf("unexpected request: %+v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"id": "m1", "memory": "skipped the gym twice last week"},
				{"id": "m2", "memory": "  "},
				{"id": "m3", "memory": "wants to train before work"},
			},
		})
	}))
	defer srv.Close()

	r := NewHTTPRecaller(HTTPConfig{BaseURL: srv.URL})
	got, err := r.Recall(context.Background(), "u1", "gym", 5)
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recall() = %v, want 2 non-blank snippets", got)
	}
}

func TestHTTPRecallerRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{{"id": "m1", "memory": "ran on monday"}},
		})
	}))
	defer srv.Close()

	r := NewHTTPRecaller(HTTPConfig{BaseURL: srv.URL, Attempts: 2})
	got, err := r.Recall(context.Background(), "u1", "gym", 3)
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(got) != 1 || calls.Load() != 2 {
		t.Fatalf("got %v after %d calls, want 1 snippet after 2 calls", got, calls.Load())
	}
}

func TestHTTPRecallerReturnsErrorWhenExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewHTTPRecaller(HTTPConfig{BaseURL: srv.URL, Attempts: 2, Timeout: time.Second})
	if _, err := r.Recall(context.Background(), "u1", "gym", 3); err == nil {
		t.Fatalf("Recall() should fail once attempts are exhausted")
	}
}

func TestHTTPRecallerStopsOnPermanentError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	r := NewHTTPRecaller(HTTPConfig{BaseURL: srv.URL, Attempts: 3})
	if _, err := r.Recall(context.Background(), "u1", "gym", 3); err == nil {
		t.Fatalf("Recall() should fail on 401")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1 (401 is not retryable)", calls.Load())
	}
}

func TestInMemoryRecallerFiltersByTopic(t *testing.T) {
	r := NewInMemoryRecaller()
	r.Add("u1", "skipped the gym on tuesday")
	r.Add("u1", "deadline stress at work")
	r.Add("u1", "new gym opened nearby")
	r.Add("u2", "someone else's gym note")

	got, err := r.Recall(context.Background(), "u1", "gym", 5)
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recall() = %v, want the two u1 gym facts", got)
	}
	if got[0] != "new gym opened nearby" {
		t.Fatalf("Recall() order = %v, want newest first", got)
	}
}
