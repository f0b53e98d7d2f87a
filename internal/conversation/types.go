// Package conversation implements the journaling conversation core: the
// per-session state record, the rule-based extractor that classifies each
// user message, the state-update rules, and the next-move decision cascade.
package conversation

import "time"

// Phase is the coarse stage of a journaling session.
type Phase string

const (
	PhaseListening        Phase = "listening"
	PhaseMoodConfirmation Phase = "mood_confirmation"
	PhaseReflecting       Phase = "reflecting"
	PhaseQuestioning      Phase = "questioning"
	PhaseClosed           Phase = "closed"
)

// Mode is a coarse signal for how deeply the assistant should probe.
type Mode string

const (
	ModeListener  Mode = "listener"
	ModeExploring Mode = "exploring"
	ModeDeepening Mode = "deepening"
)

// Action is the assistant's next move for a turn.
type Action string

const (
	ActionReflect     Action = "reflect"
	ActionAskGentle   Action = "ask_gentle"
	ActionOfferChoice Action = "offer_choice"
	ActionReframe     Action = "reframe"
	ActionClose       Action = "close"
)

// Length buckets a message by word count.
type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

// ContextCap bounds the memory-derived context list on a state record.
const ContextCap = 10

// State is the persisted conversation record for one (session, date) pair.
// It is mutated only through ApplyExtraction and the engine's lifecycle
// operations; last write wins at the record level.
type State struct {
	SessionID string `json:"session_id"`
	Date      string `json:"date"`
	UserID    string `json:"user_id"`

	CreatedAt   int64 `json:"created_at"`
	LastUpdated int64 `json:"last_updated"`

	Phase          Phase  `json:"session_phase"`
	InitialSharing string `json:"user_initial_sharing,omitempty"`
	Mood           string `json:"mood,omitempty"`

	// Anchor is the first theme detected in the session. Sticky: once set it
	// is never overwritten.
	Anchor string `json:"anchor,omitempty"`

	// ExploredThemes and UnexploredThemes are a disjoint partition of the
	// theme vocabulary. A theme moves unexplored->explored exactly once.
	ExploredThemes   []string `json:"explored_themes"`
	UnexploredThemes []string `json:"unexplored_themes"`

	// AskedQuestions is an append-only, deduplicated log of question strings
	// already posed to the user.
	AskedQuestions []string `json:"asked_questions"`

	Tone       string `json:"tone,omitempty"`
	Mode       Mode   `json:"conversation_mode"`
	LastAction Action `json:"last_ai_action,omitempty"`

	// Context holds memory-derived snippets available to the response
	// generator, capped at ContextCap.
	Context []string `json:"yesterday_context"`
}

// NewState creates a fresh record with the full theme vocabulary unexplored.
func NewState(sessionID, date, userID string, yesterdayContext []string) *State {
	now := time.Now().UnixMilli()
	st := &State{
		SessionID:        sessionID,
		Date:             date,
		UserID:           userID,
		CreatedAt:        now,
		LastUpdated:      now,
		Phase:            PhaseListening,
		Mode:             ModeListener,
		ExploredThemes:   []string{},
		UnexploredThemes: Themes(),
		AskedQuestions:   []string{},
		Context:          []string{},
	}
	for _, c := range yesterdayContext {
		st.AddContext(c)
	}
	return st
}

// AddContext appends a snippet unless it is already present or the cap is
// reached. Reports whether the snippet was added.
func (s *State) AddContext(snippet string) bool {
	if snippet == "" || len(s.Context) >= ContextCap {
		return false
	}
	for _, c := range s.Context {
		if c == snippet {
			return false
		}
	}
	s.Context = append(s.Context, snippet)
	return true
}

// HasExplored reports whether theme is in the explored set.
func (s *State) HasExplored(theme string) bool {
	for _, t := range s.ExploredThemes {
		if t == theme {
			return true
		}
	}
	return false
}

// Touch updates the last-write timestamp.
func (s *State) Touch() {
	s.LastUpdated = time.Now().UnixMilli()
}

// Clone returns a deep copy so callers can hand records across goroutines.
func (s *State) Clone() *State {
	c := *s
	c.ExploredThemes = append([]string(nil), s.ExploredThemes...)
	c.UnexploredThemes = append([]string(nil), s.UnexploredThemes...)
	c.AskedQuestions = append([]string(nil), s.AskedQuestions...)
	c.Context = append([]string(nil), s.Context...)
	return &c
}

// Extraction is the per-turn classification of a user message. It is
// ephemeral and never persisted.
type Extraction struct {
	TouchedTheme     string `json:"touched_theme,omitempty"`
	AnsweredPrevious bool   `json:"answered_previous"`
	Tone             string `json:"tone,omitempty"`
	MessageLength    Length `json:"message_length"`
	WordCount        int    `json:"word_count"`
}

// NextMove is the decision function's recommendation for the current turn.
type NextMove struct {
	Action          Action   `json:"action"`
	Question        string   `json:"question,omitempty"`
	Reflection      string   `json:"reflection,omitempty"`
	ThemesToSuggest []string `json:"themes_to_suggest,omitempty"`
	// Rule names the cascade entry that produced this move, for audit logs.
	Rule string `json:"-"`
}
