package redis

import (
	"context"
	"fmt"
	"sort"

	goredis "github.com/redis/go-redis/v9"

	"github.com/wellmind/care-service/internal/config"
	registrykv "github.com/wellmind/care-service/internal/registry/kv"
)

// mgetBatch bounds the size of a single MGET pipeline during prefix scans.
const mgetBatch = 200

func init() {
	registrykv.Register(registrykv.Plugin{
		Name:   "redis",
		Loader: load,
	})
}

func load(ctx context.Context) (registrykv.Store, error) {
	cfg := config.FromContext(ctx)
	if cfg == nil || cfg.RedisURL == "" {
		return nil, fmt.Errorf("redis kv: CARE_SERVICE_REDIS_URL is required")
	}
	return LoadFromURL(ctx, cfg.RedisURL)
}

// LoadFromURL creates a Store from a Redis-compatible URL.
func LoadFromURL(ctx context.Context, redisURL string) (registrykv.Store, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis kv: invalid URL: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis kv: ping failed: %w", err)
	}
	return &redisStore{client: client}, nil
}

type redisStore struct {
	client *goredis.Client
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, &registrykv.UnavailableError{Op: "get", Err: err}
	}
	return data, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return &registrykv.UnavailableError{Op: "set", Err: err}
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return &registrykv.UnavailableError{Op: "delete", Err: err}
	}
	return nil
}

// ScanPrefix walks SCAN MATCH <prefix>* and fetches values with MGET.
// Redis returns SCAN results in no particular order, so keys are sorted
// before the value fetch to honor the ascending-order contract.
func (s *redisStore) ScanPrefix(ctx context.Context, prefix string) ([]registrykv.Pair, error) {
	var keys []string
	var cursor uint64
	for {
		batch, next, err := s.client.Scan(ctx, cursor, prefix+"*", 1000).Result()
		if err != nil {
			return nil, &registrykv.UnavailableError{Op: "scan", Err: err}
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	sort.Strings(keys)

	pairs := make([]registrykv.Pair, 0, len(keys))
	for start := 0; start < len(keys); start += mgetBatch {
		end := start + mgetBatch
		if end > len(keys) {
			end = len(keys)
		}
		values, err := s.client.MGet(ctx, keys[start:end]...).Result()
		if err != nil {
			return nil, &registrykv.UnavailableError{Op: "mget", Err: err}
		}
		for i, v := range values {
			// A key deleted between SCAN and MGET comes back nil; skip it.
			str, ok := v.(string)
			if !ok {
				continue
			}
			pairs = append(pairs, registrykv.Pair{Key: keys[start+i], Value: []byte(str)})
		}
	}
	return pairs, nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}

var _ registrykv.Store = (*redisStore)(nil)
