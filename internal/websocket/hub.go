package websocket

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// TokenParser resolves an access token to the user it was issued to.
type TokenParser interface {
	ParseAccessToken(token string) (uuid.UUID, error)
}

// Hub streams chat transcript events from a Redis channel to every
// authenticated websocket client. The subscription exists only while at
// least one client is connected.
type Hub struct {
	mu          sync.Mutex
	connections map[*websocket.Conn]uuid.UUID
	writeMu     map[*websocket.Conn]*sync.Mutex
	redisClient *redis.Client
	channel     string
	tokens      TokenParser
	cancel      context.CancelFunc
}

func NewHub(redisClient *redis.Client, channel string, tokens TokenParser) *Hub {
	return &Hub{
		connections: make(map[*websocket.Conn]uuid.UUID),
		writeMu:     make(map[*websocket.Conn]*sync.Mutex),
		redisClient: redisClient,
		channel:     channel,
		tokens:      tokens,
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Browsers cannot set headers on websocket requests, so the token rides in the query.
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userID, err := h.tokens.ParseAccessToken(tokenStr)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.register(userID, conn)

	go func() {
		defer h.unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) register(userID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[conn] = userID
	h.writeMu[conn] = &sync.Mutex{}

	if len(h.connections) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancel = cancel
		go h.subscribe(ctx)
	}

	log.Info().Str("user_id", userID.String()).Int("total", len(h.connections)).Msg("transcript stream connected")
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()
	userID, ok := h.connections[conn]
	if !ok {
		return
	}
	delete(h.connections, conn)
	delete(h.writeMu, conn)

	if len(h.connections) == 0 && h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}

	log.Info().Str("user_id", userID.String()).Msg("transcript stream disconnected")
}

func (h *Hub) subscribe(ctx context.Context) {
	pubsub := h.redisClient.Subscribe(ctx, h.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast([]byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(data []byte) {
	h.mu.Lock()
	targets := make(map[*websocket.Conn]*sync.Mutex, len(h.writeMu))
	for conn, mu := range h.writeMu {
		targets[conn] = mu
	}
	h.mu.Unlock()

	for conn, mu := range targets {
		mu.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		mu.Unlock()
		if err != nil {
			log.Debug().Err(err).Msg("transcript stream write failed")
		}
	}
}

// Close drops every client and stops the subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.connections))
	for conn := range h.connections {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		h.unregister(conn)
	}
}
