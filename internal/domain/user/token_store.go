package user

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisTokenStore keeps email tokens and revoked JWT ids in redis
type RedisTokenStore struct {
	client *redis.Client
}

// NewRedisTokenStore creates a redis-backed token store
func NewRedisTokenStore(client *redis.Client) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func tokenKey(purpose Purpose, token string) string {
	return fmt.Sprintf("token:%s:%s", purpose, token)
}

func revokedKey(tokenID string) string {
	return fmt.Sprintf("token:revoked:%s", tokenID)
}

// Issue stores a fresh single-use token for userID
func (s *RedisTokenStore) Issue(ctx context.Context, purpose Purpose, userID uuid.UUID, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	if err := s.client.Set(ctx, tokenKey(purpose, token), userID.String(), ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store %s token: %w", purpose, err)
	}
	return token, nil
}

// Consume redeems a token exactly once
func (s *RedisTokenStore) Consume(ctx context.Context, purpose Purpose, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ErrInvalidToken
	}

	value, err := s.client.GetDel(ctx, tokenKey(purpose, token)).Result()
	if err == redis.Nil {
		return uuid.Nil, ErrInvalidToken
	} else if err != nil {
		return uuid.Nil, fmt.Errorf("failed to consume %s token: %w", purpose, err)
	}

	userID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return userID, nil
}

// Revoke denylists a JWT id until it would have expired anyway
func (s *RedisTokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, revokedKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether a JWT id was revoked
func (s *RedisTokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	n, err := s.client.Exists(ctx, revokedKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}
