package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultPrefix = "relaybot"

	connectTimeout = 5 * time.Second
)

// Redis shares the key/value pairs, known chats and counters between bot instances.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis connects to the server at url and checks it is reachable.
func NewRedis(url, prefix string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if prefix == "" {
		prefix = DefaultPrefix
	}

	return &Redis{rdb: rdb, prefix: prefix}, nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

func (r *Redis) kvKey() string       { return r.prefix + ":kv" }
func (r *Redis) usersKey() string    { return r.prefix + ":users" }
func (r *Redis) countersKey() string { return r.prefix + ":counters" }

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.HGet(ctx, r.kvKey(), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("hget failed: %w", err)
	}

	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.rdb.HSet(ctx, r.kvKey(), key, value).Err(); err != nil {
		return fmt.Errorf("hset failed: %w", err)
	}

	return nil
}

func (r *Redis) Add(ctx context.Context, chatID int64) error {
	if err := r.rdb.SAdd(ctx, r.usersKey(), chatID).Err(); err != nil {
		return fmt.Errorf("sadd failed: %w", err)
	}

	return nil
}

func (r *Redis) List(ctx context.Context) ([]int64, error) {
	members, err := r.rdb.SMembers(ctx, r.usersKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers failed: %w", err)
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chat id %q in user set: %w", m, err)
		}
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids, nil
}

func (r *Redis) Count(ctx context.Context) (int, error) {
	n, err := r.rdb.SCard(ctx, r.usersKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("scard failed: %w", err)
	}

	return int(n), nil
}

func (r *Redis) Increment(ctx context.Context, name string) error {
	if err := r.rdb.HIncrBy(ctx, r.countersKey(), name, 1).Err(); err != nil {
		return fmt.Errorf("hincrby failed: %w", err)
	}

	return nil
}

func (r *Redis) Counters(ctx context.Context) (map[string]uint64, error) {
	raw, err := r.rdb.HGetAll(ctx, r.countersKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall failed: %w", err)
	}

	out := make(map[string]uint64, len(raw))
	for k, v := range raw {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid counter %q: %w", k, err)
		}
		out[k] = n
	}

	return out, nil
}

// Save is a no-op: redis persists on its own.
func (r *Redis) Save(_ context.Context) error {
	return nil
}
