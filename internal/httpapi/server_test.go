package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/elenacorti/wisp/internal/config"
	"github.com/elenacorti/wisp/internal/conversation"
	"github.com/elenacorti/wisp/internal/engine"
	"github.com/elenacorti/wisp/internal/llm"
	"github.com/elenacorti/wisp/internal/memory"
	"github.com/elenacorti/wisp/internal/notify"
	"github.com/elenacorti/wisp/internal/observability"
	"github.com/elenacorti/wisp/internal/respond"
	"github.com/elenacorti/wisp/internal/state"
)

var (
	metricsOnce sync.Once
	testMetrics *observability.Metrics
)

func sharedMetrics() *observability.Metrics {
	metricsOnce.Do(func() {
		testMetrics = observability.NewMetrics("wisp_httpapi_test")
	})
	return testMetrics
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	metrics := sharedMetrics()
	broker := notify.NewBroker()
	eng := engine.New(
		state.NewInMemoryStore(time.Minute),
		memory.Noop{},
		respond.NewGenerator(llm.NewMockProvider(), 2),
		metrics,
		broker,
	)
	srv := New(config.Config{AllowAnyOrigin: true}, eng, broker, metrics)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func TestInitializeGetClearFlow(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/conversation/state", map[string]any{
		"session_id": "s1",
		"date":       "2026-08-30",
		"user_id":    "u1",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("initialize status = %d, want 201", resp.StatusCode)
	}
	var created struct {
		State   *conversation.State `json:"state"`
		Created bool                `json:"created"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode initialize response: %v", err)
	}
	resp.Body.Close()
	if !created.Created || created.State.Phase != conversation.PhaseListening {
		t.Fatalf("initialize response = %+v", created)
	}

	// Second initialize reports the existing record.
	resp = postJSON(t, ts.URL+"/v1/conversation/state", map[string]any{
		"session_id": "s1",
		"date":       "2026-08-30",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("re-initialize status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err := http.Get(ts.URL + "/v1/conversation/state?session_id=s1&date=2026-08-30")
	if err != nil {
		t.Fatalf("GET state: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, http.MethodDelete, ts.URL+"/v1/conversation/state?session_id=s1&date=2026-08-30", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("clear status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/v1/conversation/state?session_id=s1&date=2026-08-30")
	if err != nil {
		t.Fatalf("GET state: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after clear status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestTurnEndpoint(t *testing.T) {
	ts := newTestServer(t)

	// Turn before initialize is rejected.
	resp := postJSON(t, ts.URL+"/v1/conversation/turn", map[string]any{
		"session_id":   "s1",
		"date":         "2026-08-30",
		"user_message": "hello there",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("turn before initialize status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/v1/conversation/state", map[string]any{
		"session_id": "s1", "date": "2026-08-30", "user_id": "u1",
	})
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/v1/conversation/turn", map[string]any{
		"session_id":   "s1",
		"date":         "2026-08-30",
		"user_message": "yeah",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("turn status = %d, want 200", resp.StatusCode)
	}
	var turn engine.TurnResult
	if err := json.NewDecoder(resp.Body).Decode(&turn); err != nil {
		t.Fatalf("decode turn response: %v", err)
	}
	resp.Body.Close()

	if turn.NextMove.Action != conversation.ActionOfferChoice {
		t.Fatalf("Action = %q, want offer_choice for a one-word reply", turn.NextMove.Action)
	}
	if turn.Reply == "" {
		t.Fatalf("turn reply is empty")
	}
}

func TestTurnValidation(t *testing.T) {
	ts := newTestServer(t)

	cases := []map[string]any{
		{"date": "2026-08-30", "user_message": "hi"},
		{"session_id": "s1", "user_message": "hi"},
		{"session_id": "s1", "date": "2026-08-30"},
		{"session_id": "s1", "date": "30/08/2026", "user_message": "hi"},
	}
	for _, body := range cases {
		resp := postJSON(t, ts.URL+"/v1/conversation/turn", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("turn with %v status = %d, want 400", body, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestPatchEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/conversation/state", map[string]any{
		"session_id": "s1", "date": "2026-08-30",
	})
	resp.Body.Close()

	resp = doJSON(t, http.MethodPatch, ts.URL+"/v1/conversation/state", map[string]any{
		"session_id": "s1",
		"date":       "2026-08-30",
		"updates":    map[string]any{"session_phase": "questioning", "mood": "steady"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch status = %d, want 200", resp.StatusCode)
	}
	var st conversation.State
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode patch response: %v", err)
	}
	resp.Body.Close()
	if st.Phase != conversation.PhaseQuestioning || st.Mood != "steady" {
		t.Fatalf("patched state = %+v", st)
	}

	// Backward phase moves come back as unprocessable.
	resp = doJSON(t, http.MethodPatch, ts.URL+"/v1/conversation/state", map[string]any{
		"session_id": "s1",
		"date":       "2026-08-30",
		"updates":    map[string]any{"session_phase": "listening"},
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("backward patch status = %d, want 422", resp.StatusCode)
	}
	resp.Body.Close()

	// Patching an uninitialized pair is a 404.
	resp = doJSON(t, http.MethodPatch, ts.URL+"/v1/conversation/state", map[string]any{
		"session_id": "ghost",
		"date":       "2026-08-30",
		"updates":    map[string]any{"mood": "steady"},
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("ghost patch status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestEventsWebsocketStream(t *testing.T) {
	ts := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/conversation/events/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	resp := postJSON(t, ts.URL+"/v1/conversation/state", map[string]any{
		"session_id": "s1", "date": "2026-08-30",
	})
	resp.Body.Close()
	resp = postJSON(t, ts.URL+"/v1/conversation/turn", map[string]any{
		"session_id": "s1", "date": "2026-08-30", "user_message": "yeah",
	})
	resp.Body.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev notify.TurnEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read turn event: %v", err)
	}
	if ev.SessionID != "s1" || ev.Action != conversation.ActionOfferChoice {
		t.Fatalf("event = %+v", ev)
	}
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}
