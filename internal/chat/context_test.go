package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name    string
		history []Turn
		want    Context
	}{
		{"empty history", nil, Context{}},
		{
			"only user turns",
			[]Turn{UserTurn("First"), UserTurn("Second")},
			Context{LastUserUtterance: "second"},
		},
		{
			"latest of each role",
			[]Turn{UserTurn("Weather"), BotTurn("I can HELP"), UserTurn("Refund"), BotTurn("Refunds take 5-7 days")},
			Context{LastUserUtterance: "refund", LastBotUtterance: "refunds take 5-7 days"},
		},
		{
			"bot turn older than user turn",
			[]Turn{BotTurn("Welcome"), UserTurn("Track my ORDER")},
			Context{LastUserUtterance: "track my order", LastBotUtterance: "welcome"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Extract(tc.history))
		})
	}
}

func TestExtract_LeavesHistoryUntouched(t *testing.T) {
	history := []Turn{UserTurn("Hello THERE")}
	Extract(history)
	assert.Equal(t, "Hello THERE", history[0].Content)
}
