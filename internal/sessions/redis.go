package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "widget:session:"

// RedisStore keeps sessions as JSON with a sliding TTL so several API
// replicas can serve the same page visit.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps client. ttl <= 0 stores keys without expiry.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("sessions: redis client required")
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(id string) string {
	return redisKeyPrefix + id
}

// Get loads a session by id.
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("sessions: redis get: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("sessions: decode %s: %w", id, err)
	}
	return &sess, nil
}

// Save writes the session and resets its TTL.
func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("sessions: encode %s: %w", sess.ID, err)
	}

	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.key(sess.ID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("sessions: redis set: %w", err)
	}
	return nil
}

// Delete removes a session.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("sessions: redis del: %w", err)
	}
	return nil
}

var (
	_ Store = (*RedisStore)(nil)
	_ Store = (*InMemoryStore)(nil)
)
