package chat

import "strings"

// Context carries the signals from earlier turns that the engine may use.
// Both utterances are lowercased; an empty string means no such turn.
type Context struct {
	LastUserUtterance string
	LastBotUtterance  string
}

// Extract scans history from newest to oldest and keeps the first user and
// the first bot turn it meets. history must not include the message being
// answered.
func Extract(history []Turn) Context {
	var (
		c                   Context
		foundUser, foundBot bool
	)

	for i := len(history) - 1; i >= 0 && !(foundUser && foundBot); i-- {
		t := history[i]
		switch t.Role {
		case RoleUser:
			if !foundUser {
				c.LastUserUtterance = strings.ToLower(t.Content)
				foundUser = true
			}
		case RoleBot:
			if !foundBot {
				c.LastBotUtterance = strings.ToLower(t.Content)
				foundBot = true
			}
		}
	}

	return c
}
