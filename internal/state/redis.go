package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// websitesKey is appended to the configured prefix.
const websitesKey = "websites"

// RedisStore keeps state in one Redis hash: field = URL, value = JSON Website.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a RedisStore under the given key prefix.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, key: prefix + websitesKey}
}

// Key returns the Redis key holding the hash.
func (s *RedisStore) Key() string { return s.key }

// Load reads every field of the hash.
func (s *RedisStore) Load(ctx context.Context) (Websites, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get website state: %w", err)
	}

	sites := make(Websites, len(fields))
	for url, raw := range fields {
		var w Website
		if err := json.Unmarshal([]byte(raw), &w); err != nil {
			return nil, fmt.Errorf("failed to unmarshal state for %s: %w", url, err)
		}
		sites[url] = w
	}
	return sites, nil
}

// Save replaces the whole hash inside a MULTI/EXEC transaction so readers
// never observe a partially written state.
func (s *RedisStore) Save(ctx context.Context, sites Websites) error {
	values := make(map[string]interface{}, len(sites))
	for url, w := range sites {
		raw, err := json.Marshal(w)
		if err != nil {
			return fmt.Errorf("failed to marshal state for %s: %w", url, err)
		}
		values[url] = raw
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(values) > 0 {
			pipe.HSet(ctx, s.key, values)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set website state: %w", err)
	}
	return nil
}
