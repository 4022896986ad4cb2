package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"tickethub/internal/payment"
	"tickethub/internal/status"
)

// RedisSessionStore caches provider checkout sessions in redis hashes keyed
// by session id. The hash TTL tracks the session expiry so stale sessions
// disappear on their own; sessions without a future expiry live for
// fallbackTTL instead.
type RedisSessionStore struct {
	redis       *redis.Client
	fallbackTTL time.Duration
}

func NewRedisSessionStore(client *redis.Client, fallbackTTL time.Duration) *RedisSessionStore {
	if fallbackTTL <= 0 {
		fallbackTTL = 10 * time.Minute
	}
	return &RedisSessionStore{redis: client, fallbackTTL: fallbackTTL}
}

func sessionKey(id string) string {
	return "checkout:session:" + id
}

func (s *RedisSessionStore) Put(ctx context.Context, sess *payment.Session) error {
	key := sessionKey(sess.ID)

	err := s.redis.HSet(ctx, key, map[string]any{
		"order_id":     sess.OrderID,
		"redirect_url": sess.RedirectURL,
		"status":       string(sess.Status),
		"expires_at":   sess.ExpiresAt.Unix(),
	}).Err()
	if err != nil {
		return fmt.Errorf("cache session %s: %w", sess.ID, err)
	}

	if sess.ExpiresAt.After(time.Now()) {
		err = s.redis.ExpireAt(ctx, key, sess.ExpiresAt).Err()
	} else {
		// completed sessions carry no expiry; keep them around briefly for
		// the status endpoint
		err = s.redis.Expire(ctx, key, s.fallbackTTL).Err()
	}
	if err != nil {
		return fmt.Errorf("expire session %s: %w", sess.ID, err)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*payment.Session, error) {
	data, err := s.redis.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: checkout session %s", status.ErrNotFound, id)
	}

	expiresAt, err := strconv.ParseInt(data["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("session %s: parse expires_at: %w", id, err)
	}

	return &payment.Session{
		ID:          id,
		OrderID:     data["order_id"],
		RedirectURL: data["redirect_url"],
		Status:      payment.SessionStatus(data["status"]),
		ExpiresAt:   time.Unix(expiresAt, 0),
	}, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}
