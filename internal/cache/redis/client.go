// Package redis backs the run guard with Redis so that several API
// replicas agree on which session has a comparison outstanding.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/llm-duel/backend/internal/guard"
	"github.com/llm-duel/backend/pkg/logger"
)

const keyPrefix = "llm-duel:run:"

// releaseScript deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Client struct {
	client *redis.Client
	ttl    time.Duration
}

var _ guard.Guard = (*Client)(nil)

// NewClient connects and pings. ttl bounds how long a crashed holder can
// keep a session locked.
func NewClient(host string, port int, password string, db int, ttl time.Duration) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", addr), zap.Duration("lock_ttl", ttl))

	return &Client{client: client, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Acquire takes the run lock for key with SET NX.
func (c *Client) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.New().String()

	ok, err := c.client.SetNX(ctx, redisKey, token, c.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !ok {
		return nil, guard.ErrHeld
	}

	logger.Debug("Run lock acquired", zap.String("key", redisKey))

	return func() {
		// The caller's context may already be done by the time the run ends.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := releaseScript.Run(ctx, c.client, []string{redisKey}, token).Err(); err != nil {
			logger.Warn("Failed to release run lock", zap.String("key", redisKey), zap.Error(err))
		}
	}, nil
}

// Forget drops the lock for key regardless of holder. Used when a session
// is deleted.
func (c *Client) Forget(ctx context.Context, key string) error {
	return c.client.Del(ctx, keyPrefix+key).Err()
}
