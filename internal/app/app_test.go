package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/kenacbank/auth-service/internal/config"
)

func testConfig(name string) *config.Config {
	return &config.Config{
		Profile:               "test",
		HTTPAddr:              ":0",
		DatabaseDriver:        "sqlite",
		DatabaseURL:           "file:" + name + "?mode=memory&cache=shared",
		JWTSecretBase64:       "YWJjZGVmZ2hpamtsbW5vcHFyc3R1dnd4eXoxMjM0NTY=",
		AccessTokenTTL:        15 * time.Minute,
		RefreshTokenTTL:       24 * time.Hour,
		ClientRegistryURL:     "http://localhost:8081",
		ClientRegistryTimeout: time.Second,
		RevocationCacheTTL:    30 * time.Second,
		LoginRateLimitRPM:     30,
		RegisterRateLimitRPM:  10,
		ShutdownTimeout:       5 * time.Second,
	}
}

func TestBuildWiresEverything(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig(t.Name())

	a, err := Build(context.Background(), cfg, logger)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer a.close()

	if a.Server == nil || a.Server.Addr != cfg.HTTPAddr {
		t.Fatalf("server not wired, got %+v", a.Server)
	}
	if a.DB == nil {
		t.Fatal("database not wired")
	}
	if err := Migrate(a.DB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func TestOpenDatabaseRejectsUnknownDriver(t *testing.T) {
	cfg := testConfig(t.Name())
	cfg.DatabaseDriver = "oracle"

	if _, err := OpenDatabase(cfg); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
