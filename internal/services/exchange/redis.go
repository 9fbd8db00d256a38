// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisActivePrefix   = "exchange:active:"
	redisConsumedPrefix = "exchange:consumed:"
)

// consumeScript moves an active entry to its consumed key and returns
// the payload. GET+DEL+SET execute atomically inside Redis, which makes
// the first consume linearizable across instances. Replays hit the
// consumed key without rewriting it, so the grace countdown is fixed at
// first consume.
var consumeScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if v then
  redis.call('DEL', KEYS[1])
  redis.call('SET', KEYS[2], v, 'PX', ARGV[1])
  return v
end
return redis.call('GET', KEYS[2])
`)

// RedisStore is the multi-instance Store implementation. Entry expiry is
// delegated to Redis key TTLs; there is no sweeper to run.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	grace  time.Duration
}

// NewRedisStore creates a store over a client. Close releases the
// client.
func NewRedisStore(client *redis.Client, ttl, grace time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if grace <= 0 {
		grace = DefaultGrace
	}
	return &RedisStore{client: client, ttl: ttl, grace: grace}
}

// Generate stores the payload under a fresh token and returns the token.
func (s *RedisStore) Generate(ctx context.Context, payload json.RawMessage) (string, error) {
	token, err := NewToken()
	if err != nil {
		return "", err
	}

	ok, err := s.client.SetNX(ctx, redisActivePrefix+token, []byte(payload), s.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("failed to store exchange token: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("exchange token collision")
	}

	return token, nil
}

// Exchange consumes a token. Infrastructure failures are logged and
// reported as a miss; the caller's contract has no error channel here.
func (s *RedisStore) Exchange(ctx context.Context, token string) (json.RawMessage, bool) {
	keys := []string{redisActivePrefix + token, redisConsumedPrefix + token}
	result, err := consumeScript.Run(ctx, s.client, keys, s.grace.Milliseconds()).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Error("exchange store lookup failed", "error", err)
		}
		return nil, false
	}

	payload, ok := result.(string)
	if !ok {
		return nil, false
	}
	return json.RawMessage(payload), true
}

// Size counts active entries with a SCAN. Diagnostics only.
func (s *RedisStore) Size(ctx context.Context) int {
	var count int
	iter := s.client.Scan(ctx, 0, redisActivePrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		slog.Error("exchange store scan failed", "error", err)
	}
	return count
}

// Close releases the underlying client connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
