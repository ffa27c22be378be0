package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// maxGuestUpdateAttempts bounds optimistic retries of one guest cart write
const maxGuestUpdateAttempts = 10

// RedisGuestStore keeps guest carts as JSON documents in redis
type RedisGuestStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisGuestStore creates a guest cart store whose documents expire after ttl of inactivity
func NewRedisGuestStore(client *redis.Client, ttl time.Duration) *RedisGuestStore {
	return &RedisGuestStore{client: client, ttl: ttl}
}

func guestCartKey(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}

// Load returns the session's cart, or an empty document when none exists
func (s *RedisGuestStore) Load(ctx context.Context, sessionID string) (*GuestCartDocument, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}
	return load(ctx, s.client, sessionID)
}

// Update runs fn under WATCH on the cart key and writes the result in a
// MULTI/EXEC, so concurrent writers never overwrite each other's changes
func (s *RedisGuestStore) Update(ctx context.Context, sessionID string, fn func(doc *GuestCartDocument) error) error {
	if sessionID == "" {
		return ErrSessionRequired
	}
	key := guestCartKey(sessionID)

	txf := func(tx *redis.Tx) error {
		doc, err := load(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
		doc.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to encode guest cart: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxGuestUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrCartBusy
}

// Delete drops the session's cart
func (s *RedisGuestStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, guestCartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete guest cart: %w", err)
	}
	return nil
}

func load(ctx context.Context, rdb redis.Cmdable, sessionID string) (*GuestCartDocument, error) {
	data, err := rdb.Get(ctx, guestCartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		now := time.Now().UTC()
		return &GuestCartDocument{
			SessionID: sessionID,
			Items:     []GuestItem{},
			CreatedAt: now,
			UpdatedAt: now,
		}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to load guest cart: %w", err)
	}

	var doc GuestCartDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode guest cart: %w", err)
	}
	return &doc, nil
}
