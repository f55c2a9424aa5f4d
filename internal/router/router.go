package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"supportdesk-backend/internal/handlers"
	"supportdesk-backend/internal/middleware"
	"supportdesk-backend/internal/websocket"
)

// Limiters are the rate limiters mounted by New; main stops them on shutdown.
type Limiters struct {
	Auth *middleware.RateLimiter
	Chat *middleware.RateLimiter
}

func NewLimiters() *Limiters {
	return &Limiters{
		Auth: middleware.NewRateLimiter(10, time.Minute),
		Chat: middleware.NewRateLimiter(60, time.Minute),
	}
}

func (l *Limiters) Stop() {
	l.Auth.Stop()
	l.Chat.Stop()
}

func New(
	jwtAuth *middleware.JWTAuth,
	limiters *Limiters,
	authHandler *handlers.AuthHandler,
	chatHandler *handlers.ChatHandler,
	wsHub *websocket.Hub,
	corsOrigins []string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.CORS(corsOrigins))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"Backend is running"}`))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Unversioned path kept for existing frontends.
	r.With(limiters.Chat.Middleware).Post("/chat", chatHandler.Chat)

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(limiters.Auth.Middleware)
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
			r.Post("/google-login", authHandler.GoogleLogin)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/logout", authHandler.Logout)
		})

		// ──── User Routes ────
		r.Route("/user", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/me", authHandler.Me)
		})

		// ──── Chat Routes ────
		r.Route("/chat", func(r chi.Router) {
			r.With(limiters.Chat.Middleware).Post("/", chatHandler.Chat)
			r.Get("/history", chatHandler.History)

			r.Group(func(r chi.Router) {
				r.Use(jwtAuth.Middleware)
				r.Get("/transcript", chatHandler.Transcript)
			})
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHub.HandleWebSocket)
	})

	return r
}
