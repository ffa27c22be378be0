// internal/infrastructure/database/redis/connection.go
package redis

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/cafe-storefront/internal/config"
)

const (
	pingTimeout  = 3 * time.Second
	retryBackoff = 500 * time.Millisecond
)

// Client owns the shared go-redis client used by the guest cart, caches,
// token store and rate limiter
type Client struct {
	rdb *redis.Client
}

// NewConnection dials redis and pings it, retrying with a linear backoff so
// the API can start alongside its redis container
func NewConnection(cfg *config.Config, log *logrus.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  pingTimeout,
		WriteTimeout: pingTimeout,
		PoolTimeout:  4 * time.Second,
	})

	attempts := cfg.Redis.ConnectRetries
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		err = rdb.Ping(ctx).Err()
		cancel()
		if err == nil {
			log.WithFields(logrus.Fields{
				"addr":    cfg.GetRedisAddr(),
				"attempt": attempt,
			}).Info("Redis connection established")
			return &Client{rdb: rdb}, nil
		}
		if attempt < attempts {
			log.WithError(err).WithField("attempt", attempt).Warn("Redis not reachable yet, retrying")
			time.Sleep(time.Duration(attempt) * retryBackoff)
		}
	}

	_ = rdb.Close()
	return nil, errors.Wrapf(err, "failed to connect to Redis after %d attempts", attempts)
}

// GetClient returns the underlying go-redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Health pings redis
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}

// Close closes the connection pool
func (c *Client) Close() error {
	return c.rdb.Close()
}
