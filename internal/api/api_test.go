package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kalambet/newsbot/internal/chat"
)

type stubService struct {
	answer string
	err    error

	gotSessionID string
	gotMessage   string
}

func (s *stubService) Answer(ctx context.Context, sessionID, message string) (string, error) {
	s.gotSessionID = sessionID
	s.gotMessage = message
	if s.err != nil {
		return "", s.err
	}
	// Mirror the orchestrator's own validation so handler tests exercise
	// the full mapping.
	if sessionID == "" {
		return "", &chat.ValidationError{Field: "sessionId"}
	}
	if message == "" {
		return "", &chat.ValidationError{Field: "message"}
	}
	return s.answer, nil
}

type stubHistory struct {
	turns []chat.Turn
	err   error
}

func (s *stubHistory) History(ctx context.Context, sessionID string, limit int) ([]chat.Turn, error) {
	return s.turns, s.err
}

func postChat(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	h := New(&stubService{}, &stubHistory{})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	var body map[string]string
	json.NewDecoder(rr.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Errorf("body = %v, want status=ok", body)
	}
}

func TestChat(t *testing.T) {
	svc := &stubService{answer: "grounded answer"}
	h := New(svc, &stubHistory{})

	rr := postChat(t, h, `{"message":"What happened?","sessionId":"s1"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, http.StatusOK, rr.Body)
	}
	var body map[string]string
	json.NewDecoder(rr.Body).Decode(&body)
	if body["answer"] != "grounded answer" {
		t.Errorf("answer = %q", body["answer"])
	}
	if svc.gotSessionID != "s1" || svc.gotMessage != "What happened?" {
		t.Errorf("service got (%q, %q)", svc.gotSessionID, svc.gotMessage)
	}
}

func TestChat_InvalidBody(t *testing.T) {
	h := New(&stubService{}, &stubHistory{})

	rr := postChat(t, h, "{invalid")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	var body map[string]string
	json.NewDecoder(rr.Body).Decode(&body)
	if body["error"] == "" {
		t.Error("error field missing from 400 body")
	}
}

func TestChat_MissingFields(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing message", `{"sessionId":"s1"}`},
		{"missing sessionId", `{"message":"hello"}`},
		{"empty object", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(&stubService{answer: "x"}, &stubHistory{})

			rr := postChat(t, h, tt.body)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
			}
			var body map[string]string
			json.NewDecoder(rr.Body).Decode(&body)
			if body["error"] == "" {
				t.Error("error field missing from 400 body")
			}
			if body["details"] != "" {
				t.Error("validation failures must not carry details")
			}
		})
	}
}

func TestChat_PipelineFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"upstream", &chat.UpstreamError{Op: "generation", Err: errors.New("overloaded")}},
		{"malformed response", &chat.MalformedResponseError{Op: "embedding", Detail: "missing vector"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(&stubService{err: tt.err}, &stubHistory{})

			rr := postChat(t, h, `{"message":"hello","sessionId":"s1"}`)

			if rr.Code != http.StatusInternalServerError {
				t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
			}
			var body map[string]string
			json.NewDecoder(rr.Body).Decode(&body)
			if body["error"] == "" || body["details"] == "" {
				t.Errorf("500 body = %v, want error and details", body)
			}
		})
	}
}

func TestHistory(t *testing.T) {
	h := New(&stubService{}, &stubHistory{turns: []chat.Turn{
		{Role: chat.RoleAssistant, Content: "hi", Timestamp: "2026-01-01T00:00:01Z"},
		{Role: chat.RoleUser, Content: "hello", Timestamp: "2026-01-01T00:00:00Z"},
	}})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/history/s1", nil)
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	var body historyResponse
	json.NewDecoder(rr.Body).Decode(&body)
	if len(body.Turns) != 2 || body.Turns[0].Content != "hi" {
		t.Errorf("turns = %+v", body.Turns)
	}
}

func TestHistory_EmptySession(t *testing.T) {
	h := New(&stubService{}, &stubHistory{})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/history/unknown", nil)
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != `{"turns":[]}` {
		t.Errorf("body = %s, want empty turns array", got)
	}
}

func TestHistory_StoreUnavailable(t *testing.T) {
	h := New(&stubService{}, &stubHistory{err: errors.New("connection refused")})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/history/s1", nil)
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadGateway)
	}
}
