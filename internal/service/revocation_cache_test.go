package service

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestInMemoryRevocationCache(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryRevocationCacheStore()

	revoked, err := store.IsRevoked(ctx, "tok")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if revoked {
		t.Fatal("unknown token must miss")
	}

	if err := store.MarkRevoked(ctx, "tok", time.Minute); err != nil {
		t.Fatalf("mark: %v", err)
	}
	revoked, _ = store.IsRevoked(ctx, "tok")
	if !revoked {
		t.Fatal("marked token must hit")
	}

	if err := store.Clear(ctx, "tok"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	revoked, _ = store.IsRevoked(ctx, "tok")
	if revoked {
		t.Fatal("cleared token must miss")
	}
}

func TestInMemoryRevocationCacheExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryRevocationCacheStore()

	store.store["tok"] = time.Now().UTC().Add(-time.Second)
	revoked, err := store.IsRevoked(ctx, "tok")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if revoked {
		t.Fatal("expired entry must miss")
	}
	if _, ok := store.store["tok"]; ok {
		t.Fatal("expired entry must be evicted on lookup")
	}
}

func TestInMemoryRevocationCacheIgnoresNonPositiveTTL(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryRevocationCacheStore()

	if err := store.MarkRevoked(ctx, "tok", 0); err != nil {
		t.Fatalf("mark: %v", err)
	}
	revoked, _ := store.IsRevoked(ctx, "tok")
	if revoked {
		t.Fatal("zero TTL must not cache anything")
	}
}

func TestRedisRevocationCache(t *testing.T) {
	ctx := context.Background()
	server, client := newRedisClientForTest(t)
	store := NewRedisRevocationCacheStore(client, "")

	const token = "secret-credential"
	revoked, err := store.IsRevoked(ctx, token)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if revoked {
		t.Fatal("unknown token must miss")
	}

	if err := store.MarkRevoked(ctx, token, time.Minute); err != nil {
		t.Fatalf("mark: %v", err)
	}
	revoked, _ = store.IsRevoked(ctx, token)
	if !revoked {
		t.Fatal("marked token must hit")
	}
	for _, key := range server.Keys() {
		if strings.Contains(key, token) {
			t.Fatalf("raw token leaked into cache key %q", key)
		}
		if !strings.HasPrefix(key, "revoked_tokens:") {
			t.Fatalf("unexpected key prefix %q", key)
		}
	}

	if err := store.Clear(ctx, token); err != nil {
		t.Fatalf("clear: %v", err)
	}
	revoked, _ = store.IsRevoked(ctx, token)
	if revoked {
		t.Fatal("cleared token must miss")
	}
}

func TestRedisRevocationCacheTTL(t *testing.T) {
	ctx := context.Background()
	server, client := newRedisClientForTest(t)
	store := NewRedisRevocationCacheStore(client, "denied")

	if err := store.MarkRevoked(ctx, "tok", time.Second); err != nil {
		t.Fatalf("mark: %v", err)
	}
	server.FastForward(2 * time.Second)
	revoked, err := store.IsRevoked(ctx, "tok")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if revoked {
		t.Fatal("entry must lapse after its TTL")
	}
}

func TestRedisRevocationCacheNilClient(t *testing.T) {
	ctx := context.Background()
	store := NewRedisRevocationCacheStore(nil, "")

	revoked, err := store.IsRevoked(ctx, "tok")
	if err != nil || revoked {
		t.Fatalf("nil client must behave as a miss, got (%v, %v)", revoked, err)
	}
	if err := store.MarkRevoked(ctx, "tok", time.Minute); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := store.Clear(ctx, "tok"); err != nil {
		t.Fatalf("clear: %v", err)
	}
}
