// Package state persists ConversationState records under TTL-bounded keys.
package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/elenacorti/wisp/internal/conversation"
)

var ErrNotFound = errors.New("conversation state not found")

// Store persists and retrieves conversation-state records. Every Put
// refreshes the record's TTL; expired records behave as absent.
type Store interface {
	Get(ctx context.Context, sessionID, date string) (*conversation.State, error)
	Put(ctx context.Context, st *conversation.State) error
	Delete(ctx context.Context, sessionID, date string) error
	Close() error
}

// Key builds the logical cache key for a (session, date) pair.
func Key(sessionID, date string) string {
	return fmt.Sprintf("conversation:%s:%s", date, sessionID)
}
