package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisRevocationCacheStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisRevocationCacheStore(client redis.UniversalClient, prefix string) *RedisRevocationCacheStore {
	if prefix == "" {
		prefix = "revoked_tokens"
	}
	return &RedisRevocationCacheStore{client: client, prefix: prefix}
}

func (s *RedisRevocationCacheStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	if s.client == nil {
		return false, nil
	}
	_, err := s.client.Get(ctx, s.key(token)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *RedisRevocationCacheStore) MarkRevoked(ctx context.Context, token string, ttl time.Duration) error {
	if s.client == nil || ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, s.key(token), "1", ttl).Err()
}

func (s *RedisRevocationCacheStore) Clear(ctx context.Context, token string) error {
	if s.client == nil {
		return nil
	}
	return s.client.Del(ctx, s.key(token)).Err()
}

// Raw token strings never become cache keys; only their digest does.
func (s *RedisRevocationCacheStore) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%s:%s", s.prefix, hex.EncodeToString(sum[:]))
}
