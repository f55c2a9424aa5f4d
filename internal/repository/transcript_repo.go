package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"supportdesk-backend/internal/chat"
)

const (
	TranscriptKey        = "chat:transcript"
	TranscriptChannel    = "chat:transcript:events"
	TranscriptMaxEntries = 1000
)

// TranscriptRepo keeps the newest chat exchanges in a capped Redis list and
// announces each one on TranscriptChannel. It is a chat.Sink.
type TranscriptRepo struct {
	redis *redis.Client
}

func NewTranscriptRepo(client *redis.Client) *TranscriptRepo {
	return &TranscriptRepo{redis: client}
}

func (r *TranscriptRepo) Write(ctx context.Context, ex chat.Exchange) error {
	data, err := json.Marshal(ex)
	if err != nil {
		return fmt.Errorf("failed to encode exchange: %w", err)
	}

	pipe := r.redis.TxPipeline()
	pipe.RPush(ctx, TranscriptKey, data)
	pipe.LTrim(ctx, TranscriptKey, -TranscriptMaxEntries, -1)
	pipe.Publish(ctx, TranscriptChannel, data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append transcript: %w", err)
	}
	return nil
}

// Tail returns the newest n exchanges, oldest first.
func (r *TranscriptRepo) Tail(ctx context.Context, n int) ([]chat.Exchange, error) {
	if n <= 0 || n > TranscriptMaxEntries {
		n = TranscriptMaxEntries
	}

	raw, err := r.redis.LRange(ctx, TranscriptKey, int64(-n), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	entries := make([]chat.Exchange, 0, len(raw))
	for _, item := range raw {
		var ex chat.Exchange
		if err := json.Unmarshal([]byte(item), &ex); err != nil {
			continue
		}
		entries = append(entries, ex)
	}
	return entries, nil
}
