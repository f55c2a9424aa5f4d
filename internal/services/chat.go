package services

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"supportdesk-backend/internal/chat"
)

// Responder picks a reply for a message given the prior-turn context.
type Responder interface {
	Evaluate(message string, c chat.Context) (reply, rule string)
}

// TurnRecorder receives every completed exchange.
type TurnRecorder interface {
	Record(message, reply string, at time.Time)
}

// ChatService runs one exchange end to end for the configured session:
// store the user turn, derive context from the turns before it, reply,
// store the reply and hand the pair to the transcript.
type ChatService struct {
	store      chat.Store
	engine     Responder
	transcript TurnRecorder
	sessionKey string
	now        func() time.Time

	// mu keeps the user turn and its reply adjacent in the window, and the
	// transcript in the same order, when requests for the session overlap.
	mu sync.Mutex
}

func NewChatService(store chat.Store, engine Responder, transcript TurnRecorder, sessionKey string) *ChatService {
	return &ChatService{
		store:      store,
		engine:     engine,
		transcript: transcript,
		sessionKey: sessionKey,
		now:        time.Now,
	}
}

func (s *ChatService) Reply(message string) string {
	reply, rule := s.exchange(message)
	log.Debug().Str("session", s.sessionKey).Str("rule", rule).Msg("chat reply selected")
	return reply
}

func (s *ChatService) exchange(message string) (reply, rule string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store.Append(s.sessionKey, chat.UserTurn(message))

	history := s.store.Recent(s.sessionKey, chat.MaxTurns)
	c := chat.Extract(history[:len(history)-1])

	reply, rule = s.engine.Evaluate(message, c)
	s.store.Append(s.sessionKey, chat.BotTurn(reply))

	// Record does not block, so the transcript follows the window order.
	if s.transcript != nil {
		s.transcript.Record(message, reply, s.now())
	}
	return reply, rule
}

// History returns a copy of the session window, oldest first.
func (s *ChatService) History() []chat.Turn {
	return s.store.Recent(s.sessionKey, chat.MaxTurns)
}
