package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrTokenNotFound = errors.New("token not found")

// TokenRepo stores opaque refresh tokens in Redis, keyed "refresh:<token>".
type TokenRepo struct {
	redis *redis.Client
}

func NewTokenRepo(client *redis.Client) *TokenRepo {
	return &TokenRepo{redis: client}
}

func refreshKey(token string) string { return "refresh:" + token }

func (r *TokenRepo) Save(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error {
	if err := r.redis.Set(ctx, refreshKey(token), userID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// Consume returns the user a refresh token belongs to and deletes the token in
// the same command, so concurrent refreshes cannot both redeem it.
func (r *TokenRepo) Consume(ctx context.Context, token string) (uuid.UUID, error) {
	raw, err := r.redis.GetDel(ctx, refreshKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrTokenNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to read refresh token: %w", err)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user ID for refresh token: %w", err)
	}
	return id, nil
}

func (r *TokenRepo) Delete(ctx context.Context, token string) error {
	return r.redis.Del(ctx, refreshKey(token)).Err()
}
