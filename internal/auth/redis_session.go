package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisSession struct {
	UID       string    `json:"uid"`
	CreatedAt time.Time `json:"created_at"`
}

// RedisStore keeps sessions in Redis, expiring them with key TTLs.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to redisURL (redis://host:port/db).
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &RedisStore{client: client, prefix: "session:"}, nil
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// Create stores a new session for uid.
func (s *RedisStore) Create(ctx context.Context, uid string, expiresAt time.Time) (string, error) {
	id, err := randomHex(32)
	if err != nil {
		return "", fmt.Errorf("generating session ID: %w", err)
	}
	data, err := json.Marshal(redisSession{UID: uid, CreatedAt: time.Now().UTC()})
	if err != nil {
		return "", fmt.Errorf("marshaling session: %w", err)
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		ttl = sessionExpiry
	}
	if err := s.client.Set(ctx, s.key(id), data, ttl).Err(); err != nil {
		return "", fmt.Errorf("storing session: %w", err)
	}
	return id, nil
}

// Lookup returns the uid of a live session.
func (s *RedisStore) Lookup(ctx context.Context, id string) (string, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("looking up session: %w", err)
	}
	var sess redisSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return "", fmt.Errorf("unmarshaling session: %w", err)
	}
	return sess.UID, nil
}

// Destroy removes a session.
func (s *RedisStore) Destroy(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// Ping checks that Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
