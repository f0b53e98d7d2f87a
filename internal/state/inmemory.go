package state

import (
	"context"
	"sync"
	"time"

	"github.com/elenacorti/wisp/internal/conversation"
)

// InMemoryStore is a simple in-process store for local/dev use. Records carry
// an expiry deadline and a janitor goroutine sweeps them out, mirroring the
// TTL behavior of an external cache.
type InMemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	records map[string]inMemoryEntry
}

type inMemoryEntry struct {
	state     *conversation.State
	expiresAt time.Time
}

func NewInMemoryStore(ttl time.Duration) *InMemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &InMemoryStore{
		ttl:     ttl,
		records: make(map[string]inMemoryEntry),
	}
}

func (s *InMemoryStore) Get(_ context.Context, sessionID, date string) (*conversation.State, error) {
	s.mu.RLock()
	entry, ok := s.records[Key(sessionID, date)]
	s.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, ErrNotFound
	}
	return entry.state.Clone(), nil
}

func (s *InMemoryStore) Put(_ context.Context, st *conversation.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[Key(st.SessionID, st.Date)] = inMemoryEntry{
		state:     st.Clone(),
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, sessionID, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, Key(sessionID, date))
	return nil
}

func (s *InMemoryStore) Close() error { return nil }

// Len counts live (unexpired) records.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := time.Now()
	count := 0
	for _, e := range s.records {
		if now.Before(e.expiresAt) {
			count++
		}
	}
	return count
}

// StartJanitor sweeps expired records until ctx is canceled.
func (s *InMemoryStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

func (s *InMemoryStore) sweep() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.records {
		if now.After(e.expiresAt) {
			delete(s.records, key)
		}
	}
}
