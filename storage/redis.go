package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"roomboss-cli/booking"
)

const redisKeyPrefix = "roomboss:idempotency:"

// RedisDedup shares submission outcomes between machines through redis.
type RedisDedup struct {
	client *redis.Client
	ttl    time.Duration
}

// OpenRedisDedup connects to the server at url and checks it answers.
func OpenRedisDedup(ctx context.Context, url string, ttl time.Duration) (*RedisDedup, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisDedup(client, ttl), nil
}

func NewRedisDedup(client *redis.Client, ttl time.Duration) *RedisDedup {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &RedisDedup{client: client, ttl: ttl}
}

func (d *RedisDedup) Lookup(ctx context.Context, key string) (booking.DedupRecord, bool, error) {
	payload, err := d.client.Get(ctx, redisKeyPrefix+hashKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return booking.DedupRecord{}, false, nil
	}
	if err != nil {
		return booking.DedupRecord{}, false, fmt.Errorf("lookup idempotency key: %w", err)
	}

	var record booking.DedupRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return booking.DedupRecord{}, false, fmt.Errorf("decode stored result: %w", err)
	}
	return record, true, nil
}

func (d *RedisDedup) Save(ctx context.Context, key string, record booking.DedupRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := d.client.Set(ctx, redisKeyPrefix+hashKey(key), payload, d.ttl).Err(); err != nil {
		return fmt.Errorf("save idempotency key: %w", err)
	}
	return nil
}

func (d *RedisDedup) Close() error {
	return d.client.Close()
}
