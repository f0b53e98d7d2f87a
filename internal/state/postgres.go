package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/elenacorti/wisp/internal/conversation"
)

// PostgresStore persists conversation state in PostgreSQL. Records carry an
// explicit expires_at so the TTL semantics match the in-memory store; reads
// ignore expired rows and a periodic purge removes them.
type PostgresStore struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

func NewPostgresStore(ctx context.Context, databaseURL string, ttl time.Duration) (*PostgresStore, error) {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool, ttl: ttl}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversation_states (
			key TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			date TEXT NOT NULL,
			payload JSONB NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_conversation_states_expires ON conversation_states (expires_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, sessionID, date string) (*conversation.State, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM conversation_states WHERE key=$1 AND expires_at > now()`,
		Key(sessionID, date),
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query conversation state: %w", err)
	}

	var st conversation.State
	if err := json.Unmarshal(payload, &st); err != nil {
		return nil, fmt.Errorf("decode conversation state: %w", err)
	}
	return &st, nil
}

func (s *PostgresStore) Put(ctx context.Context, st *conversation.State) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode conversation state: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO conversation_states (key, session_id, date, payload, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, expires_at = EXCLUDED.expires_at`,
		Key(st.SessionID, st.Date),
		st.SessionID,
		st.Date,
		payload,
		time.Now().UTC().Add(s.ttl),
	)
	if err != nil {
		return fmt.Errorf("save conversation state: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, sessionID, date string) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM conversation_states WHERE key=$1`,
		Key(sessionID, date),
	); err != nil {
		return fmt.Errorf("delete conversation state: %w", err)
	}
	return nil
}

// PurgeExpired removes rows past their deadline and returns how many went.
func (s *PostgresStore) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM conversation_states WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("purge expired states: %w", err)
	}
	return tag.RowsAffected(), nil
}

// StartJanitor purges expired rows until ctx is canceled.
func (s *PostgresStore) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_, _ = s.PurgeExpired(ctx)
			}
		}
	}()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
