// Package engine owns the per-turn journaling pipeline: extract, update
// state, decide the next move, enrich from long-term memory, and render the
// reply. It is the only writer of conversation-state records.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/elenacorti/wisp/internal/conversation"
	"github.com/elenacorti/wisp/internal/memory"
	"github.com/elenacorti/wisp/internal/notify"
	"github.com/elenacorti/wisp/internal/observability"
	"github.com/elenacorti/wisp/internal/privacy"
	"github.com/elenacorti/wisp/internal/respond"
	"github.com/elenacorti/wisp/internal/state"
)

// ErrNotInitialized is returned when a turn or patch arrives for a
// (session, date) pair that was never initialized. Auto-creating here would
// mask orchestration bugs upstream, so the caller gets an explicit error.
var ErrNotInitialized = errors.New("conversation not initialized")

// recallLimit bounds how many snippets one enrichment may fold in.
const recallLimit = 5

type Engine struct {
	store    state.Store
	recaller memory.Recaller
	gen      *respond.Generator
	metrics  *observability.Metrics
	broker   *notify.Broker
	locks    *keyedMutex
}

func New(store state.Store, recaller memory.Recaller, gen *respond.Generator, metrics *observability.Metrics, broker *notify.Broker) *Engine {
	return &Engine{
		store:    store,
		recaller: recaller,
		gen:      gen,
		metrics:  metrics,
		broker:   broker,
		locks:    newKeyedMutex(),
	}
}

// Initialize creates the state record for a (session, date) pair. Calling it
// again for an existing pair is a no-op that returns the stored record and
// created=false.
func (e *Engine) Initialize(ctx context.Context, sessionID, date, userID string, yesterdayContext []string) (*conversation.State, bool, error) {
	unlock := e.locks.Lock(state.Key(sessionID, date))
	defer unlock()

	existing, err := e.store.Get(ctx, sessionID, date)
	if err == nil {
		e.metrics.StateOps.WithLabelValues("initialize", "exists").Inc()
		return existing, false, nil
	}
	if !errors.Is(err, state.ErrNotFound) {
		return nil, false, fmt.Errorf("load conversation state: %w", err)
	}

	st := conversation.NewState(sessionID, date, userID, yesterdayContext)
	if err := e.store.Put(ctx, st); err != nil {
		return nil, false, fmt.Errorf("create conversation state: %w", err)
	}
	e.metrics.StateOps.WithLabelValues("initialize", "created").Inc()
	return st.Clone(), true, nil
}

// Get loads the record, or ErrNotInitialized when absent/expired.
func (e *Engine) Get(ctx context.Context, sessionID, date string) (*conversation.State, error) {
	st, err := e.store.Get(ctx, sessionID, date)
	if errors.Is(err, state.ErrNotFound) {
		return nil, ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation state: %w", err)
	}
	return st, nil
}

// Clear deletes the record. Idempotent: clearing an absent key succeeds.
func (e *Engine) Clear(ctx context.Context, sessionID, date string) error {
	unlock := e.locks.Lock(state.Key(sessionID, date))
	defer unlock()

	if err := e.store.Delete(ctx, sessionID, date); err != nil {
		return fmt.Errorf("clear conversation state: %w", err)
	}
	e.metrics.StateOps.WithLabelValues("clear", "ok").Inc()
	return nil
}

// TurnRequest is one user message for an initialized conversation.
type TurnRequest struct {
	SessionID    string
	Date         string
	UserMessage  string
	LastQuestion string
}

// TurnResult is the outcome of one processed turn.
type TurnResult struct {
	State      *conversation.State     `json:"state"`
	Extraction conversation.Extraction `json:"extraction"`
	NextMove   conversation.NextMove   `json:"next_move"`
	Reply      string                  `json:"reply"`
	// Degraded marks replies that came from the static fallback.
	Degraded bool `json:"degraded,omitempty"`
}

// ProcessTurn runs the full pipeline for one user message. Memory and LLM
// failures degrade the reply; only state-store failures fail the turn.
func (e *Engine) ProcessTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	started := time.Now()
	unlock := e.locks.Lock(state.Key(req.SessionID, req.Date))
	defer unlock()

	st, err := e.store.Get(ctx, req.SessionID, req.Date)
	if errors.Is(err, state.ErrNotFound) {
		return nil, ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation state: %w", err)
	}

	log := observability.LoggerFromContext(ctx).With(
		"session_id", req.SessionID,
		"date", req.Date,
	)

	ex := conversation.Extract(req.UserMessage, req.LastQuestion)

	// The first long-form message of a listening session is captured once as
	// the initial sharing and never overwritten.
	if st.InitialSharing == "" && st.Phase == conversation.PhaseListening && ex.MessageLength == conversation.LengthLong {
		st.InitialSharing = req.UserMessage
	}

	anchorWasEmpty := st.Anchor == ""

	// The cascade judges the turn against the state as the message found it.
	// Updating first would mark the touched theme explored and strip the
	// follow-up question from every first mention of a theme.
	decideView := st.Clone()
	conversation.ApplyExtraction(st, ex, req.LastQuestion)

	if anchorWasEmpty && st.Anchor != "" {
		e.enrich(ctx, st, log)
	}

	mv := conversation.Decide(ex, decideView)
	st.LastAction = mv.Action

	if err := e.store.Put(ctx, st); err != nil {
		return nil, fmt.Errorf("save conversation state: %w", err)
	}
	e.metrics.StateOps.WithLabelValues("turn", "ok").Inc()
	e.metrics.TurnsProcessed.WithLabelValues(string(mv.Action)).Inc()

	res := e.gen.Generate(ctx, mv, st)
	if res.Fallback {
		e.metrics.Responses.WithLabelValues("fallback").Inc()
	} else {
		e.metrics.Responses.WithLabelValues("llm").Inc()
	}
	if res.Regenerations > 0 {
		e.metrics.Regenerations.Add(float64(res.Regenerations))
	}

	e.broker.Publish(notify.TurnEvent{
		TurnID:    uuid.NewString(),
		SessionID: st.SessionID,
		Date:      st.Date,
		Action:    mv.Action,
		Theme:     ex.TouchedTheme,
		Phase:     st.Phase,
		Reply:     res.Text,
		At:        time.Now().UTC(),
	})

	e.metrics.ObserveTurnLatency(time.Since(started))
	log.Info("turn processed",
		"action", mv.Action,
		"rule", mv.Rule,
		"theme", ex.TouchedTheme,
		"length", ex.MessageLength,
		"fallback", res.Fallback,
		"message_preview", privacy.LogPreview(req.UserMessage, 80),
	)

	return &TurnResult{
		State:      st.Clone(),
		Extraction: ex,
		NextMove:   mv,
		Reply:      res.Text,
		Degraded:   res.Fallback,
	}, nil
}

// enrich folds topic-relevant memory snippets into the state's context list.
// Best-effort: failures leave the context as it was.
func (e *Engine) enrich(ctx context.Context, st *conversation.State, log *slog.Logger) {
	snippets, err := e.recaller.Recall(ctx, st.UserID, st.Anchor, recallLimit)
	if err != nil {
		e.metrics.Enrichment.WithLabelValues("error").Inc()
		log.Warn("memory recall failed", "topic", st.Anchor, "error", err)
		return
	}
	if len(snippets) == 0 {
		e.metrics.Enrichment.WithLabelValues("empty").Inc()
		return
	}

	for _, s := range snippets {
		st.AddContext(s)
	}
	e.metrics.Enrichment.WithLabelValues("hit").Inc()
}

// PatchRequest carries a partial update. Nil fields are left untouched.
type PatchRequest struct {
	Phase          *conversation.Phase `json:"session_phase,omitempty"`
	Mood           *string             `json:"mood,omitempty"`
	InitialSharing *string             `json:"user_initial_sharing,omitempty"`
	Mode           *conversation.Mode  `json:"conversation_mode,omitempty"`
	Context        []string            `json:"yesterday_context,omitempty"`
}

// Patch merges the given fields into an existing record. Phase moves are
// forward-only and the initial sharing keeps its first value.
func (e *Engine) Patch(ctx context.Context, sessionID, date string, patch PatchRequest) (*conversation.State, error) {
	unlock := e.locks.Lock(state.Key(sessionID, date))
	defer unlock()

	st, err := e.store.Get(ctx, sessionID, date)
	if errors.Is(err, state.ErrNotFound) {
		return nil, ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation state: %w", err)
	}

	if patch.Phase != nil {
		if err := conversation.AdvancePhase(st, *patch.Phase); err != nil {
			return nil, err
		}
	}
	if patch.Mood != nil {
		st.Mood = *patch.Mood
	}
	if patch.InitialSharing != nil && st.InitialSharing == "" {
		st.InitialSharing = *patch.InitialSharing
	}
	if patch.Mode != nil {
		switch *patch.Mode {
		case conversation.ModeListener, conversation.ModeExploring, conversation.ModeDeepening:
			st.Mode = *patch.Mode
		default:
			return nil, fmt.Errorf("unknown conversation mode %q", *patch.Mode)
		}
	}
	for _, c := range patch.Context {
		st.AddContext(c)
	}
	st.Touch()

	if err := e.store.Put(ctx, st); err != nil {
		return nil, fmt.Errorf("save conversation state: %w", err)
	}
	e.metrics.StateOps.WithLabelValues("patch", "ok").Inc()
	return st.Clone(), nil
}
