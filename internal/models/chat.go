package models

import "supportdesk-backend/internal/chat"

// ChatRequest is the payload sent to the chat endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the bot's reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}

type ChatHistoryResponse struct {
	Turns []chat.Turn `json:"turns"`
}

type TranscriptResponse struct {
	Entries []chat.Exchange `json:"entries"`
}
