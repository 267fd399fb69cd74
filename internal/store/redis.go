package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Irehund/JobTrack/internal/model"
)

const (
	redisCommutePrefix = "jobtrack:commute:"
	redisNoRoute       = "null"
)

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// RedisStore shares resolved commutes between processes. Entries expire after
// ttl; zero keeps them forever.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ model.CommuteStore = (*RedisStore)(nil)

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func redisKey(key model.CommuteKey) string {
	return redisCommutePrefix + key.String()
}

func (s *RedisStore) Get(ctx context.Context, key model.CommuteKey) (*int, bool, error) {
	v, err := s.rdb.Get(ctx, redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading commute %s: %w", key, err)
	}
	if v == redisNoRoute {
		return nil, true, nil
	}
	m, err := strconv.Atoi(v)
	if err != nil {
		return nil, false, fmt.Errorf("decoding commute %s: %w", key, err)
	}
	return &m, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key model.CommuteKey, minutes *int) error {
	v := redisNoRoute
	if minutes != nil {
		v = strconv.Itoa(*minutes)
	}
	if err := s.rdb.Set(ctx, redisKey(key), v, s.ttl).Err(); err != nil {
		return fmt.Errorf("writing commute %s: %w", key, err)
	}
	return nil
}

// Clear deletes every commute key under the jobtrack prefix.
func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.rdb.Scan(ctx, 0, redisCommutePrefix+"*", 200).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 200 {
			if err := s.rdb.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("clearing commute cache: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scanning commute cache: %w", err)
	}
	if len(batch) > 0 {
		if err := s.rdb.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("clearing commute cache: %w", err)
		}
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
