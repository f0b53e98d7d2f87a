package llm

import (
	"context"
	"sync"
)

// MockProvider replays scripted replies, falling back to a fixed line when
// the script runs out. Used in tests and when no API key is configured.
type MockProvider struct {
	mu      sync.Mutex
	replies []string
	next    int

	// Err, when set, is returned by every Complete call.
	Err error
	// Calls records the prompts received, for assertions.
	Calls []string
}

func NewMockProvider(replies ...string) *MockProvider {
	return &MockProvider{replies: replies}
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Complete(_ context.Context, _ string, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	if m.next < len(m.replies) {
		reply := m.replies[m.next]
		m.next++
		return reply, nil
	}
	return "I hear you. What feels most present right now?", nil
}
