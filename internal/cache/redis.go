package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/thereayou/presence-relay/internal/relay"
)

// RedisStore keeps the newest messages in a capped Redis list. Index 0 is the
// most recent message.
type RedisStore struct {
	rdb   *redis.Client
	key   string
	limit int
}

func NewRedisStore(rdb *redis.Client, key string, limit int) *RedisStore {
	return &RedisStore{rdb: rdb, key: key, limit: limit}
}

// Connect parses url and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connect failed: %w", err)
	}
	return rdb, nil
}

func (s *RedisStore) SaveMessage(ctx context.Context, msg relay.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, s.key, data)
	pipe.LTrim(ctx, s.key, 0, int64(s.limit-1))
	_, err = pipe.Exec(ctx)
	return err
}

// RecentMessages returns up to limit messages, oldest first.
func (s *RedisStore) RecentMessages(ctx context.Context, limit int) ([]relay.Message, error) {
	values, err := s.rdb.LRange(ctx, s.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	messages := make([]relay.Message, 0, len(values))
	for i := len(values) - 1; i >= 0; i-- {
		var msg relay.Message
		if err := json.Unmarshal([]byte(values[i]), &msg); err != nil {
			return nil, fmt.Errorf("decode archived message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}
