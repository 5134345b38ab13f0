package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pulsechat/relay/internal/conversation"
	"github.com/pulsechat/relay/internal/models"
)

// messageTTL bounds retention of the Redis message log.
const messageTTL = 24 * time.Hour

// RedisStore keeps the message log in Redis sorted sets, scored by the
// server timestamp. Retention is TTL-based. The same client also backs the
// API rate limiter.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Client exposes the underlying connection for the rate limiter.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

// kindKey returns the sorted-set key holding all envelopes of a kind.
func kindKey(kind models.Kind) string {
	return fmt.Sprintf("messages:kind:%s", kind)
}

// conversationKey returns the sorted-set key for one personal thread.
func conversationKey(key string) string {
	return redisConvPrefix + key
}

func (s *RedisStore) Append(ctx context.Context, env *models.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	member := redis.Z{
		Score:  float64(env.Timestamp),
		Member: string(data),
	}

	pipe := s.client.Pipeline()
	key := kindKey(env.Kind)
	pipe.ZAdd(ctx, key, member)
	pipe.Expire(ctx, key, messageTTL)
	if env.Kind == models.KindPersonal && env.ConversationKey != "" {
		ck := conversationKey(env.ConversationKey)
		pipe.ZAdd(ctx, ck, member)
		pipe.Expire(ctx, ck, messageTTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) QueryByKind(ctx context.Context, kind models.Kind, limit int) ([]models.Envelope, error) {
	return s.readRange(ctx, kindKey(kind), limit)
}

func (s *RedisStore) QueryByConversationKey(ctx context.Context, key string, limit int) ([]models.Envelope, error) {
	return s.readRange(ctx, conversationKey(key), limit)
}

// redisConvPrefix namespaces the per-conversation sorted sets.
const redisConvPrefix = "messages:conv:"

func (s *RedisStore) QueryConversationKeys(ctx context.Context, identityID string) ([]string, error) {
	keys := make([]string, 0)
	iter := s.client.Scan(ctx, 0, redisConvPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := strings.TrimPrefix(iter.Val(), redisConvPrefix)
		parts := strings.Split(key, conversation.Separator)
		if len(parts) == 2 && (parts[0] == identityID || parts[1] == identityID) {
			keys = append(keys, key)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *RedisStore) readRange(ctx context.Context, key string, limit int) ([]models.Envelope, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	// Ascending timestamp order
	results, err := s.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   "+inf",
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, err
	}

	envelopes := make([]models.Envelope, 0, len(results))
	for _, data := range results {
		var env models.Envelope
		if err := json.Unmarshal([]byte(data), &env); err != nil {
			continue
		}
		envelopes = append(envelopes, env)
	}
	return envelopes, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() {
	s.client.Close()
}
