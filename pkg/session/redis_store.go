package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Omarrvv/final-bot-sub003/pkg/config"
	"github.com/Omarrvv/final-bot-sub003/pkg/observability/logging"
	"github.com/Omarrvv/final-bot-sub003/pkg/observability/metrics"
)

// RedisStore is a redis-backed Store. Sessions are stored as JSON under
// {prefix}{id}; every Save rewrites the value and restarts the TTL, so
// active conversations never expire mid-dialog.
//
// Concurrent writers to the same session are last-writer-wins; AddMessage is
// a read-modify-write without locking, which matches the single-writer
// traffic pattern of a chat session.
type RedisStore struct {
	client     *redis.Client
	keyPrefix  string
	ttl        time.Duration
	maxHistory int
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(cfg config.SessionConfig) (*RedisStore, error) {
	if cfg.Redis.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	keyPrefix := cfg.Redis.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "session:"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	store := &RedisStore{
		client:     client,
		keyPrefix:  keyPrefix,
		ttl:        cfg.SessionTTL(),
		maxHistory: cfg.MaxHistory,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := store.CheckConnection(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logging.Infof("Session store connected to redis at %s with prefix %s, TTL %v",
		cfg.Redis.Address, keyPrefix, store.ttl)

	return store, nil
}

func (r *RedisStore) key(id string) string {
	return r.keyPrefix + id
}

// Get retrieves a session by id.
func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		metrics.RecordStoreError("session_redis", "get")
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &sess, nil
}

// Save upserts a session, stamping UpdatedAt and restarting the TTL.
func (r *RedisStore) Save(ctx context.Context, sess *Session) error {
	if sess == nil || sess.ID == "" {
		return ErrInvalidInput
	}

	sess.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, r.key(sess.ID), data, r.ttl).Err(); err != nil {
		metrics.RecordStoreError("session_redis", "save")
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes a session by id.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidID
	}

	deleted, err := r.client.Del(ctx, r.key(id)).Result()
	if err != nil {
		metrics.RecordStoreError("session_redis", "delete")
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}

// AddMessage appends one history entry to a stored session.
func (r *RedisStore) AddMessage(ctx context.Context, id, role, content string) error {
	sess, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	sess.AppendMessage(role, content, r.maxHistory)
	return r.Save(ctx, sess)
}

// CheckConnection verifies the redis connection is healthy.
func (r *RedisStore) CheckConnection(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the redis client.
func (r *RedisStore) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
