package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"supportdesk-backend/internal/chat"
	"supportdesk-backend/internal/models"
	"supportdesk-backend/internal/services"
)

type panickyResponder struct{}

func (panickyResponder) Reply(string) string  { panic("boom") }
func (panickyResponder) History() []chat.Turn { return nil }

type stubTranscript struct {
	entries []chat.Exchange
	err     error
	asked   int
}

func (s *stubTranscript) Tail(ctx context.Context, n int) ([]chat.Exchange, error) {
	s.asked = n
	return s.entries, s.err
}

func newChatService() *services.ChatService {
	return services.NewChatService(chat.NewMemoryStore(chat.MaxTurns), chat.NewEngine(), nil, "default_user")
}

func postChat(h *ChatHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.Chat(rr, req)
	return rr
}

func TestChatHandler_Reply(t *testing.T) {
	h := NewChatHandler(newChatService(), &stubTranscript{})

	rr := postChat(h, `{"message":"Hello"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp models.ChatResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !strings.Contains(resp.Reply, "Welcome to Customer Support") {
		t.Fatalf("unexpected reply %q", resp.Reply)
	}
}

func TestChatHandler_EmptyMessageStillReplies(t *testing.T) {
	h := NewChatHandler(newChatService(), &stubTranscript{})

	rr := postChat(h, `{}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp models.ChatResponse
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Reply == "" {
		t.Fatal("expected a non-empty reply")
	}
}

func TestChatHandler_MalformedBody(t *testing.T) {
	h := NewChatHandler(newChatService(), &stubTranscript{})

	rr := postChat(h, `{"message":`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "VALIDATION_ERROR") {
		t.Fatalf("expected validation error, got %s", rr.Body.String())
	}
}

func TestChatHandler_PanicBecomesChatError(t *testing.T) {
	h := NewChatHandler(panickyResponder{}, &stubTranscript{})

	rr := postChat(h, `{"message":"hi"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}

	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error.Code != "CHAT_ERROR" {
		t.Fatalf("expected CHAT_ERROR, got %q", resp.Error.Code)
	}
}

func TestChatHandler_History(t *testing.T) {
	svc := newChatService()
	h := NewChatHandler(svc, &stubTranscript{})
	postChat(h, `{"message":"track my order"}`)

	rr := httptest.NewRecorder()
	h.History(rr, httptest.NewRequest(http.MethodGet, "/api/v1/chat/history", nil))

	var resp models.ChatHistoryResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Turns) != 2 || resp.Turns[0].Role != chat.RoleUser || resp.Turns[1].Role != chat.RoleBot {
		t.Fatalf("unexpected history %+v", resp.Turns)
	}
}

func TestChatHandler_Transcript(t *testing.T) {
	at := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	tr := &stubTranscript{entries: []chat.Exchange{{Time: at, User: "hi", Bot: "hello"}}}
	h := NewChatHandler(newChatService(), tr)

	tests := []struct {
		name      string
		query     string
		wantCode  int
		wantLimit int
	}{
		{"default limit", "", http.StatusOK, defaultTranscriptLimit},
		{"explicit limit", "?limit=5", http.StatusOK, 5},
		{"bad limit", "?limit=abc", http.StatusBadRequest, 0},
		{"negative limit", "?limit=-1", http.StatusBadRequest, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr.asked = 0
			rr := httptest.NewRecorder()
			h.Transcript(rr, httptest.NewRequest(http.MethodGet, "/api/v1/chat/transcript"+tc.query, nil))

			if rr.Code != tc.wantCode {
				t.Fatalf("expected status %d, got %d", tc.wantCode, rr.Code)
			}
			if tr.asked != tc.wantLimit {
				t.Fatalf("expected limit %d, got %d", tc.wantLimit, tr.asked)
			}
		})
	}
}

func TestChatHandler_TranscriptError(t *testing.T) {
	h := NewChatHandler(newChatService(), &stubTranscript{err: errors.New("redis down")})

	rr := httptest.NewRecorder()
	h.Transcript(rr, httptest.NewRequest(http.MethodGet, "/api/v1/chat/transcript", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
}
