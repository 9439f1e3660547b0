package handler

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"map-assistant/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	mu        sync.Mutex
	accept    bool
	busy      bool
	submitted []string
	turns     []model.Turn
	feed      chan model.Event
	closed    bool
}

func (f *fakeSession) Submit(text string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, text)
	return f.accept
}

func (f *fakeSession) Turns() []model.Turn {
	return f.turns
}

func (f *fakeSession) State() model.SessionState {
	return model.SessionState{Busy: f.busy, TurnCount: len(f.turns)}
}

func (f *fakeSession) Subscribe() (<-chan model.Event, func()) {
	return f.feed, func() {
		f.mu.Lock()
		f.closed = true
		f.mu.Unlock()
	}
}

func newRouter(s Session) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r.Group("/api"), NewSessionHandler(s))
	return r
}

func TestGetTurns(t *testing.T) {
	created := time.Date(2026, 10, 16, 8, 30, 0, 0, time.UTC)
	s := &fakeSession{turns: []model.Turn{
		{ID: "1", Role: model.RoleAssistant, Content: "Xin chào", CreatedAt: created},
		{ID: "2", Role: model.RoleUser, Content: "cafe", CreatedAt: created},
	}}

	w := httptest.NewRecorder()
	newRouter(s).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/session/turns", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Turns []model.Turn `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Turns, 2)
	assert.Equal(t, "Xin chào", body.Turns[0].Content)
	assert.Equal(t, model.RoleUser, body.Turns[1].Role)
	assert.NotContains(t, w.Body.String(), `"intent"`)
}

func TestGetState(t *testing.T) {
	s := &fakeSession{busy: true, turns: make([]model.Turn, 3)}

	w := httptest.NewRecorder()
	newRouter(s).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/session/state", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"busy":true,"turn_count":3}`, w.Body.String())
}

func TestSubmitMessageAccepted(t *testing.T) {
	s := &fakeSession{accept: true}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/session/messages", strings.NewReader(`{"message":"Tìm quán cafe"}`))
	req.Header.Set("Content-Type", "application/json")
	newRouter(s).ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"accepted":true,"busy":true}`, w.Body.String())
	assert.Equal(t, []string{"Tìm quán cafe"}, s.submitted)
}

func TestSubmitMessageIgnored(t *testing.T) {
	s := &fakeSession{accept: false, busy: true}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/session/messages", strings.NewReader(`{"message":"again"}`))
	req.Header.Set("Content-Type", "application/json")
	newRouter(s).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"accepted":false,"busy":true}`, w.Body.String())
}

func TestSubmitMessageBadRequest(t *testing.T) {
	s := &fakeSession{accept: true}

	for _, body := range []string{`{}`, `not json`} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/session/messages", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		newRouter(s).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	assert.Empty(t, s.submitted)
}

func TestStreamEvents(t *testing.T) {
	s := &fakeSession{feed: make(chan model.Event, 2)}
	srv := httptest.NewServer(newRouter(s))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/session/events")
	require.NoError(t, err)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)
	_, _ = reader.ReadString('\n')

	intent := "search_places"
	s.feed <- model.Event{Turn: &model.Turn{ID: "t1", Role: model.RoleAssistant, Content: "hi", Intent: intent, CreatedAt: time.Now()}}
	s.feed <- model.Event{State: &model.SessionState{Busy: false, TurnCount: 3}}

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: turn\n", line)

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, "data: "))

	var turn model.Turn
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &turn))
	assert.Equal(t, "t1", turn.ID)
	assert.Equal(t, intent, turn.Intent)

	_, _ = reader.ReadString('\n')
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: state\n", line)

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.JSONEq(t, `{"busy":false,"turn_count":3}`, strings.TrimPrefix(strings.TrimSpace(line), "data: "))

	close(s.feed)
	_ = resp.Body.Close()

	assert.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.closed
	}, time.Second, 10*time.Millisecond)
}
