package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"supportdesk-backend/internal/chat"
	"supportdesk-backend/internal/middleware"
	"supportdesk-backend/internal/models"
)

const defaultTranscriptLimit = 50

type chatResponder interface {
	Reply(message string) string
	History() []chat.Turn
}

type transcriptReader interface {
	Tail(ctx context.Context, n int) ([]chat.Exchange, error)
}

type ChatHandler struct {
	chat       chatResponder
	transcript transcriptReader
}

func NewChatHandler(responder chatResponder, transcript transcriptReader) *ChatHandler {
	return &ChatHandler{chat: responder, transcript: transcript}
}

// Chat answers {message} with {reply}. A panic while producing the reply is
// reported as CHAT_ERROR so the client can tell it apart from a normal reply.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Interface("panic", rec).
				Str("request_id", r.Header.Get(middleware.RequestIDHeader)).
				Msg("chat reply failed")
			writeJSON(w, http.StatusInternalServerError, errorResp("CHAT_ERROR", "Chat service is temporarily unavailable", r))
		}
	}()

	reply := h.chat.Reply(req.Message)
	writeJSON(w, http.StatusOK, models.ChatResponse{Reply: reply})
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.ChatHistoryResponse{Turns: h.chat.History()})
}

func (h *ChatHandler) Transcript(w http.ResponseWriter, r *http.Request) {
	limit := defaultTranscriptLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "limit must be a positive integer", r))
			return
		}
		limit = n
	}

	entries, err := h.transcript.Tail(r.Context(), limit)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.TranscriptResponse{Entries: entries})
}
