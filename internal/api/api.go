// Package api exposes the HTTP surface: the chat endpoint, the session
// history read path, and a health probe.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/newsbot/internal/chat"
)

const maxRequestBodySize = 1 << 20 // 1MB

// ChatService answers one user message within a session.
type ChatService interface {
	Answer(ctx context.Context, sessionID, message string) (string, error)
}

// HistoryReader lists a session's stored turns, newest first.
type HistoryReader interface {
	History(ctx context.Context, sessionID string, limit int) ([]chat.Turn, error)
}

// New returns the service's HTTP handler.
func New(svc ChatService, history HistoryReader) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)
	r.Post("/api/chat", handleChat(svc))
	r.Get("/api/history/{sessionID}", handleHistory(history))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// chatRequest is the JSON body of POST /api/chat.
type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// chatResponse is the success body of POST /api/chat.
type chatResponse struct {
	Answer string `json:"answer"`
}

func handleChat(svc ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body", "")
			return
		}

		answer, err := svc.Answer(r.Context(), req.SessionID, req.Message)
		if err != nil {
			var ve *chat.ValidationError
			if errors.As(err, &ve) {
				writeError(w, http.StatusBadRequest, ve.Error(), "")
				return
			}

			// Contract breaks are logged distinctly from transient upstream
			// failures; the caller sees the same 500 either way.
			var me *chat.MalformedResponseError
			if errors.As(err, &me) {
				slog.Error("collaborator contract violation", "op", me.Op, "detail", me.Detail)
			} else {
				slog.Error("chat pipeline failed", "sessionId", req.SessionID, "error", err)
			}
			writeError(w, http.StatusInternalServerError, "chat processing failed", err.Error())
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse{Answer: answer})
	}
}

// historyResponse is the success body of GET /api/history/{sessionID}.
type historyResponse struct {
	Turns []chat.Turn `json:"turns"`
}

func handleHistory(history HistoryReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")

		turns, err := history.History(r.Context(), sessionID, 0)
		if err != nil {
			slog.Error("history read failed", "sessionId", sessionID, "error", err)
			writeError(w, http.StatusBadGateway, "history unavailable", err.Error())
			return
		}
		if turns == nil {
			turns = []chat.Turn{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(historyResponse{Turns: turns})
	}
}

// writeError writes the error body defined by the API: {error} for client
// failures, {error, details} for server-side ones.
func writeError(w http.ResponseWriter, code int, msg, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	body := map[string]string{"error": msg}
	if details != "" {
		body["details"] = details
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("writing error response", "error", err)
	}
}
