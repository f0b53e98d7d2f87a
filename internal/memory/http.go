package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elenacorti/wisp/internal/reliability"
)

// HTTPConfig configures the client for a mem0-style memory search API.
type HTTPConfig struct {
	// BaseURL is the service root, e.g. http://localhost:8765.
	BaseURL string
	// APIKey, when set, is sent as a bearer token.
	APIKey string
	// Timeout for each HTTP request. Defaults to 10s.
	Timeout time.Duration
	// Attempts is the total number of tries per recall. Defaults to 2.
	Attempts int
}

// HTTPRecaller queries an external memory service over JSON/HTTP.
type HTTPRecaller struct {
	cfg    HTTPConfig
	client *http.Client
}

func NewHTTPRecaller(cfg HTTPConfig) *HTTPRecaller {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 2
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &HTTPRecaller{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type searchRequest struct {
	UserID string `json:"user_id"`
	Query  string `json:"query"`
	Limit  int    `json:"limit"`
}

type searchResponse struct {
	Results []struct {
		ID     string `json:"id"`
		Memory string `json:"memory"`
	} `json:"results"`
}

func (r *HTTPRecaller) Recall(ctx context.Context, userID, topic string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5
	}

	var lastErr error
	for attempt := 0; attempt < r.cfg.Attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(reliability.Backoff(attempt, 200*time.Millisecond, 2*time.Second)):
			}
		}
		snippets, err := r.search(ctx, userID, topic, limit)
		if err == nil {
			return snippets, nil
		}
		lastErr = err
		var se *statusError
		if errors.As(err, &se) && !reliability.IsRetryableStatus(se.code) {
			break
		}
	}
	return nil, lastErr
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("memory search: status %d: %s", e.code, e.body)
}

func (r *HTTPRecaller) search(ctx context.Context, userID, topic string, limit int) ([]string, error) {
	body, err := json.Marshal(searchRequest{UserID: userID, Query: topic, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+"/v1/memories/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("memory search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(data))}
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	snippets := make([]string, 0, len(parsed.Results))
	for _, res := range parsed.Results {
		text := strings.TrimSpace(res.Memory)
		if text != "" {
			snippets = append(snippets, text)
		}
	}
	return snippets, nil
}
