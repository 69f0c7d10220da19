package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/varshithaxx/MediBlaze-AI-Medical-Assistant-RAG/models"
)

const (
	// Redis key prefix for conversation history
	historyKeyPrefix = "conversation:"
	// Default TTL for idle conversations
	defaultTTL = 2 * time.Hour
)

// RedisStore implements Store backed by Redis, for deployments running
// more than one assistant replica. Keys expire after the configured TTL
// so history never outlives an idle conversation.
type RedisStore struct {
	client   *redis.Client
	maxTurns int
	ttl      time.Duration
}

// NewRedisStore creates a Redis-backed history store.
func NewRedisStore(client *redis.Client, maxTurns int, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{
		client:   client,
		maxTurns: maxTurns,
		ttl:      ttl,
	}
}

// History implements Store. Refreshes TTL on every read.
func (s *RedisStore) History(ctx context.Context, conversationID string) ([]models.Turn, error) {
	key := s.key(conversationID)
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	var turns []models.Turn
	if err := json.Unmarshal([]byte(val), &turns); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}

	// Refresh TTL on read; a failed refresh is not fatal.
	_ = s.client.Expire(ctx, key, s.ttl).Err()

	return turns, nil
}

// Append implements Store. Uses WATCH/MULTI/EXEC so concurrent appends to
// the same conversation never lose turns.
func (s *RedisStore) Append(ctx context.Context, conversationID string, turns ...models.Turn) error {
	key := s.key(conversationID)

	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		var existing []models.Turn
		val, err := tx.Get(ctx, key).Result()
		if err != nil && err != redis.Nil {
			return fmt.Errorf("failed to read history: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal([]byte(val), &existing); err != nil {
				return fmt.Errorf("failed to decode history: %w", err)
			}
		}

		combined := Trim(append(existing, turns...), s.maxTurns)
		encoded, err := json.Marshal(combined)
		if err != nil {
			return fmt.Errorf("failed to encode history: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, s.ttl)
			return nil
		})
		return err
	}, key)
}

// Clear implements Store.
func (s *RedisStore) Clear(ctx context.Context, conversationID string) error {
	return s.client.Del(ctx, s.key(conversationID)).Err()
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(conversationID string) string {
	return historyKeyPrefix + conversationID
}

// Compile-time check that RedisStore implements Store.
var _ Store = (*RedisStore)(nil)
