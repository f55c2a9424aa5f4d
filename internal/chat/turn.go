// Package chat holds the support responder: the bounded per-session turn
// window, the prior-turn context it derives, the ordered rule engine that
// picks a reply, and the append-only transcript of every exchange.
package chat

// Role identifies who produced a turn.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Turn is a single message in a conversation. Turns are stored and handed
// out by value so callers never share the backing data.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func UserTurn(content string) Turn { return Turn{Role: RoleUser, Content: content} }

func BotTurn(content string) Turn { return Turn{Role: RoleBot, Content: content} }
