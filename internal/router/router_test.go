package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"supportdesk-backend/internal/chat"
	"supportdesk-backend/internal/handlers"
	"supportdesk-backend/internal/middleware"
	"supportdesk-backend/internal/services"
	"supportdesk-backend/internal/websocket"
)

type emptyTranscript struct{}

func (emptyTranscript) Tail(context.Context, int) ([]chat.Exchange, error) { return nil, nil }

func newTestRouter(t *testing.T) (http.Handler, *middleware.JWTAuth) {
	t.Helper()

	jwtAuth := middleware.NewJWTAuth("test-secret")
	limiters := NewLimiters()
	t.Cleanup(limiters.Stop)

	chatSvc := services.NewChatService(chat.NewMemoryStore(chat.MaxTurns), chat.NewEngine(), nil, "default_user")
	authSvc := services.NewAuthService(nil, nil, jwtAuth, nil)

	return New(
		jwtAuth,
		limiters,
		handlers.NewAuthHandler(authSvc),
		handlers.NewChatHandler(chatSvc, emptyTranscript{}),
		websocket.NewHub(nil, "chat:transcript:events", jwtAuth),
		[]string{"http://localhost:3000"},
	), jwtAuth
}

func TestRouter_HealthAndRoot(t *testing.T) {
	r, _ := newTestRouter(t)

	for path, want := range map[string]string{
		"/":       "Backend is running",
		"/health": `"ok"`,
	} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), want) {
			t.Fatalf("%s: unexpected response %d %s", path, rr.Code, rr.Body.String())
		}
	}
}

func TestRouter_ChatConversation(t *testing.T) {
	r, _ := newTestRouter(t)

	send := func(path, msg string) string {
		body, _ := json.Marshal(map[string]string{"message": msg})
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(body))))
		if rr.Code != http.StatusOK {
			t.Fatalf("POST %s: expected status 200, got %d", path, rr.Code)
		}
		var resp struct {
			Reply string `json:"reply"`
		}
		json.NewDecoder(rr.Body).Decode(&resp)
		return resp.Reply
	}

	if reply := send("/api/v1/chat", "what is gravity"); !strings.Contains(reply, "Gravity") {
		t.Fatalf("expected topic reply to mention Gravity, got %q", reply)
	}
	if reply := send("/chat", "weather"); reply == "" {
		t.Fatal("expected a reply on the legacy path")
	}
	if reply := send("/api/v1/chat", "xyz123"); !strings.Contains(reply, "weather") {
		t.Fatalf("expected fallback to mention the earlier message, got %q", reply)
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/chat/history", nil))
	var history struct {
		Turns []chat.Turn `json:"turns"`
	}
	json.NewDecoder(rr.Body).Decode(&history)
	if len(history.Turns) != 6 {
		t.Fatalf("expected 6 turns in history, got %d", len(history.Turns))
	}
}

func TestRouter_TranscriptRequiresAuth(t *testing.T) {
	r, jwtAuth := newTestRouter(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/chat/transcript", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without token, got %d", rr.Code)
	}

	token, _ := jwtAuth.GenerateAccessToken(uuid.New(), "a@example.com")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/chat/transcript", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 with token, got %d", rr.Code)
	}
}
