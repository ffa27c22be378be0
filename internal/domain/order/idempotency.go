package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const idempotencyPending = "pending"

// IdempotencyStore collapses duplicate checkout submissions carrying the same key.
type IdempotencyStore interface {
	// Reserve claims key for userID. It returns uuid.Nil when the caller now
	// owns the key, the id of the order already placed under it, or
	// ErrCheckoutInProgress while a first attempt is still running.
	Reserve(ctx context.Context, userID uuid.UUID, key string) (uuid.UUID, error)
	Complete(ctx context.Context, userID uuid.UUID, key string, orderID uuid.UUID) error
	Release(ctx context.Context, userID uuid.UUID, key string) error
}

// RedisIdempotencyStore keeps checkout keys in redis. A reservation lives for
// pendingTTL so an attempt that never completes frees its key soon; the order
// id recorded by Complete lives for ttl.
type RedisIdempotencyStore struct {
	client     *redis.Client
	pendingTTL time.Duration
	ttl        time.Duration
}

// NewRedisIdempotencyStore creates a redis-backed idempotency store
func NewRedisIdempotencyStore(client *redis.Client, pendingTTL, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, pendingTTL: pendingTTL, ttl: ttl}
}

func idempotencyKey(userID uuid.UUID, key string) string {
	return fmt.Sprintf("checkout:idem:%s:%s", userID, key)
}

// Reserve implements IdempotencyStore
func (s *RedisIdempotencyStore) Reserve(ctx context.Context, userID uuid.UUID, key string) (uuid.UUID, error) {
	redisKey := idempotencyKey(userID, key)

	ok, err := s.client.SetNX(ctx, redisKey, idempotencyPending, s.pendingTTL).Result()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}
	if ok {
		return uuid.Nil, nil
	}

	value, err := s.client.Get(ctx, redisKey).Result()
	if err == redis.Nil {
		// Released between SETNX and GET; try once more
		ok, err = s.client.SetNX(ctx, redisKey, idempotencyPending, s.pendingTTL).Result()
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to reserve idempotency key: %w", err)
		}
		if ok {
			return uuid.Nil, nil
		}
		return uuid.Nil, ErrCheckoutInProgress
	} else if err != nil {
		return uuid.Nil, fmt.Errorf("failed to read idempotency key: %w", err)
	}

	if value == idempotencyPending {
		return uuid.Nil, ErrCheckoutInProgress
	}

	orderID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("corrupt idempotency record %q: %w", redisKey, err)
	}
	return orderID, nil
}

// Complete records the order placed under key
func (s *RedisIdempotencyStore) Complete(ctx context.Context, userID uuid.UUID, key string, orderID uuid.UUID) error {
	if err := s.client.Set(ctx, idempotencyKey(userID, key), orderID.String(), s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to complete idempotency key: %w", err)
	}
	return nil
}

// Release frees key so the user can retry
func (s *RedisIdempotencyStore) Release(ctx context.Context, userID uuid.UUID, key string) error {
	if err := s.client.Del(ctx, idempotencyKey(userID, key)).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

type nopIdempotencyStore struct{}

func (nopIdempotencyStore) Reserve(context.Context, uuid.UUID, string) (uuid.UUID, error) {
	return uuid.Nil, nil
}

func (nopIdempotencyStore) Complete(context.Context, uuid.UUID, string, uuid.UUID) error { return nil }

func (nopIdempotencyStore) Release(context.Context, uuid.UUID, string) error { return nil }
