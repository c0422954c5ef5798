package service

import (
	"context"
	"sync"
	"time"
)

// RevocationCacheStore is a short-TTL cache of tokens the ledger has
// already declared dead. Only negative results are cached: a token once
// revoked stays revoked, so a stale hit can never admit a live token.
// The ledger remains the authority; a cache miss always falls through.
type RevocationCacheStore interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
	MarkRevoked(ctx context.Context, token string, ttl time.Duration) error
	Clear(ctx context.Context, token string) error
}

type NoopRevocationCacheStore struct{}

func NewNoopRevocationCacheStore() *NoopRevocationCacheStore {
	return &NoopRevocationCacheStore{}
}

func (s *NoopRevocationCacheStore) IsRevoked(context.Context, string) (bool, error) {
	return false, nil
}

func (s *NoopRevocationCacheStore) MarkRevoked(context.Context, string, time.Duration) error {
	return nil
}

func (s *NoopRevocationCacheStore) Clear(context.Context, string) error {
	return nil
}

type InMemoryRevocationCacheStore struct {
	mu    sync.RWMutex
	store map[string]time.Time
}

func NewInMemoryRevocationCacheStore() *InMemoryRevocationCacheStore {
	return &InMemoryRevocationCacheStore{store: make(map[string]time.Time)}
}

func (s *InMemoryRevocationCacheStore) IsRevoked(_ context.Context, token string) (bool, error) {
	now := time.Now().UTC()
	s.mu.RLock()
	expiresAt, ok := s.store[token]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if now.After(expiresAt) {
		s.mu.Lock()
		delete(s.store, token)
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}

func (s *InMemoryRevocationCacheStore) MarkRevoked(_ context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store[token] = time.Now().UTC().Add(ttl)
	return nil
}

func (s *InMemoryRevocationCacheStore) Clear(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.store, token)
	return nil
}
