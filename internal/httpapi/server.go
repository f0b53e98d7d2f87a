// Package httpapi exposes the conversation engine over REST plus a
// websocket stream of turn events.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/elenacorti/wisp/internal/config"
	"github.com/elenacorti/wisp/internal/conversation"
	"github.com/elenacorti/wisp/internal/engine"
	"github.com/elenacorti/wisp/internal/notify"
	"github.com/elenacorti/wisp/internal/observability"
)

type Server struct {
	cfg      config.Config
	engine   *engine.Engine
	broker   *notify.Broker
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

func New(cfg config.Config, eng *engine.Engine, broker *notify.Broker, metrics *observability.Metrics) *Server {
	broker.OnDrop(func() { metrics.EventDrops.Inc() })
	return &Server{
		cfg:     cfg,
		engine:  eng,
		broker:  broker,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only allow browser websocket connections from the same
				// origin unless explicitly opened up, so other sites cannot
				// tap a user's journaling stream.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/conversation/state", s.handleInitialize)
	r.Get("/v1/conversation/state", s.handleGetState)
	r.Patch("/v1/conversation/state", s.handlePatchState)
	r.Delete("/v1/conversation/state", s.handleClearState)
	r.Post("/v1/conversation/turn", s.handleTurn)
	r.Get("/v1/conversation/events/ws", s.handleEventsWS)

	return r
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := observability.WithRequestID(r.Context(), uuid.NewString())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

type initializeRequest struct {
	SessionID        string   `json:"session_id"`
	Date             string   `json:"date"`
	UserID           string   `json:"user_id"`
	YesterdayContext []string `json:"yesterday_context,omitempty"`
}

type initializeResponse struct {
	State   *conversation.State `json:"state"`
	Created bool                `json:"created"`
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var req initializeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if msg, ok := validateKeyPair(req.SessionID, req.Date); !ok {
		respondError(w, http.StatusBadRequest, "invalid_request", msg)
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		req.UserID = "anonymous"
	}

	st, created, err := s.engine.Initialize(r.Context(), req.SessionID, req.Date, req.UserID, req.YesterdayContext)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "storage_error", err.Error())
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(w, status, initializeResponse{State: st, Created: created})
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	sessionID, date, ok := keyPairFromQuery(w, r)
	if !ok {
		return
	}

	st, err := s.engine.Get(r.Context(), sessionID, date)
	if errors.Is(err, engine.ErrNotInitialized) {
		respondError(w, http.StatusNotFound, "state_not_found", "no conversation state for that session and date")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "storage_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, st)
}

type turnRequest struct {
	SessionID    string `json:"session_id"`
	Date         string `json:"date"`
	UserMessage  string `json:"user_message"`
	LastQuestion string `json:"last_question,omitempty"`
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if msg, ok := validateKeyPair(req.SessionID, req.Date); !ok {
		respondError(w, http.StatusBadRequest, "invalid_request", msg)
		return
	}
	if strings.TrimSpace(req.UserMessage) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "user_message is required")
		return
	}

	res, err := s.engine.ProcessTurn(r.Context(), engine.TurnRequest{
		SessionID:    req.SessionID,
		Date:         req.Date,
		UserMessage:  req.UserMessage,
		LastQuestion: req.LastQuestion,
	})
	if errors.Is(err, engine.ErrNotInitialized) {
		respondError(w, http.StatusNotFound, "state_not_found", "initialize the conversation before sending turns")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "storage_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}

type patchStateRequest struct {
	SessionID string              `json:"session_id"`
	Date      string              `json:"date"`
	Updates   engine.PatchRequest `json:"updates"`
}

func (s *Server) handlePatchState(w http.ResponseWriter, r *http.Request) {
	var req patchStateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if msg, ok := validateKeyPair(req.SessionID, req.Date); !ok {
		respondError(w, http.StatusBadRequest, "invalid_request", msg)
		return
	}

	st, err := s.engine.Patch(r.Context(), req.SessionID, req.Date, req.Updates)
	if errors.Is(err, engine.ErrNotInitialized) {
		respondError(w, http.StatusNotFound, "state_not_found", "no conversation state for that session and date")
		return
	}
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid_patch", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleClearState(w http.ResponseWriter, r *http.Request) {
	sessionID, date, ok := keyPairFromQuery(w, r)
	if !ok {
		return
	}
	if err := s.engine.Clear(r.Context(), sessionID, date); err != nil {
		respondError(w, http.StatusInternalServerError, "storage_error", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"cleared": true})
}

func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.metrics.EventStreams.Inc()
	defer s.metrics.EventStreams.Dec()

	sub := s.broker.Subscribe(64)
	defer sub.Cancel()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reader only watches for the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(out)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

func validateKeyPair(sessionID, date string) (string, bool) {
	if strings.TrimSpace(sessionID) == "" {
		return "session_id is required", false
	}
	if strings.TrimSpace(date) == "" {
		return "date is required", false
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return "date must be formatted YYYY-MM-DD", false
	}
	return "", true
}

func keyPairFromQuery(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if msg, ok := validateKeyPair(sessionID, date); !ok {
		respondError(w, http.StatusBadRequest, "invalid_request", msg)
		return "", "", false
	}
	return sessionID, date, true
}
