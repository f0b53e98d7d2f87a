package memory

import (
	"context"
	"strings"
	"sync"
)

// InMemoryRecaller serves recall from an in-process fact list, for local use
// and tests.
type InMemoryRecaller struct {
	mu    sync.RWMutex
	facts map[string][]string
}

func NewInMemoryRecaller() *InMemoryRecaller {
	return &InMemoryRecaller{facts: make(map[string][]string)}
}

func (r *InMemoryRecaller) Add(userID, fact string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.facts[userID] = append(r.facts[userID], fact)
}

// Recall returns facts mentioning the topic, newest first, up to limit.
func (r *InMemoryRecaller) Recall(_ context.Context, userID, topic string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 5
	}
	loweredTopic := strings.ToLower(topic)

	r.mu.RLock()
	defer r.mu.RUnlock()
	facts := r.facts[userID]

	var out []string
	for i := len(facts) - 1; i >= 0 && len(out) < limit; i-- {
		if strings.Contains(strings.ToLower(facts[i]), loweredTopic) {
			out = append(out, facts[i])
		}
	}
	return out, nil
}
