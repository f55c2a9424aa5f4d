package chat

import "sync"

// MaxTurns is the size of every session window (five user/bot pairs).
const MaxTurns = 10

// Store keeps the recent turns of each conversation, oldest first.
type Store interface {
	Append(key string, turn Turn)
	Recent(key string, limit int) []Turn
}

// MemoryStore is a process-lifetime Store. Sessions are created on their
// first append and are never removed; nothing survives a restart.
type MemoryStore struct {
	mu       sync.Mutex
	limit    int
	sessions map[string][]Turn
}

func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = MaxTurns
	}
	return &MemoryStore{
		limit:    limit,
		sessions: make(map[string][]Turn),
	}
}

// Append adds turn to the session and evicts the oldest turns beyond the
// window. Append and trim happen under one lock so concurrent writers can
// neither lose a turn nor observe an over-long window.
func (s *MemoryStore) Append(key string, turn Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := append(s.sessions[key], turn)
	if over := len(turns) - s.limit; over > 0 {
		// Copy so the evicted prefix can be collected.
		turns = append([]Turn(nil), turns[over:]...)
	}
	s.sessions[key] = turns
}

// Recent returns up to limit of the newest turns in chronological order.
// A non-positive limit returns the whole window. Unknown keys are empty.
func (s *MemoryStore) Recent(key string, limit int) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := s.sessions[key]
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}
