// Package memory integrates with the long-term memory service that stores
// facts about the user across days. Recall is best-effort: the conversation
// proceeds with whatever came back, including nothing.
package memory

import "context"

// Recaller searches long-term memory for snippets relevant to a topic.
type Recaller interface {
	Recall(ctx context.Context, userID, topic string, limit int) ([]string, error)
}

// Noop is used when no memory service is configured.
type Noop struct{}

func (Noop) Recall(context.Context, string, string, int) ([]string, error) {
	return nil, nil
}
