package config

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is built once at process start and handed to components by
// reference; nothing reads the environment after Load returns.
type Config struct {
	Profile  string
	HTTPAddr string

	DatabaseDriver string
	DatabaseURL    string

	JWTSecretBase64 string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	ClientRegistryURL     string
	ClientRegistryTimeout time.Duration

	RedisAddr          string
	RedisPassword      string
	RevocationCacheTTL time.Duration

	LoginRateLimitRPM    int
	RegisterRateLimitRPM int

	OTELMetricsEnabled        bool
	OTELTracesEnabled         bool
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELServiceName           string
	OTELEnvironment           string
	OTELMetricsExportInterval time.Duration

	ShutdownTimeout time.Duration
}

// minSigningKeyBytes matches the HS256 requirement enforced again by the
// token codec; checking here surfaces a bad secret before anything starts.
const minSigningKeyBytes = 32

func Load(ctx context.Context) (*Config, error) {
	cfg := &Config{
		Profile:  envString("APP_PROFILE", "dev"),
		HTTPAddr: envString("HTTP_ADDR", ":8080"),

		DatabaseDriver: envString("DATABASE_DRIVER", "sqlite"),
		DatabaseURL:    envString("DATABASE_URL", "file:auth.db?cache=shared"),

		JWTSecretBase64: os.Getenv("JWT_SECRET_BASE64"),

		ClientRegistryURL: envString("CLIENT_REGISTRY_URL", "http://localhost:8081"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		OTELExporterOTLPEndpoint: envString("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELServiceName:          envString("OTEL_SERVICE_NAME", "kenacbank-auth-service"),
		OTELEnvironment:          envString("OTEL_ENVIRONMENT", "dev"),
	}

	var err error
	if cfg.AccessTokenTTL, err = envDuration("JWT_ACCESS_TTL", 15*time.Minute); err != nil {
		return nil, loadError(ctx, cfg.Profile, err)
	}
	if cfg.RefreshTokenTTL, err = envDuration("JWT_REFRESH_TTL", 7*24*time.Hour); err != nil {
		return nil, loadError(ctx, cfg.Profile, err)
	}
	if cfg.ClientRegistryTimeout, err = envDuration("CLIENT_REGISTRY_TIMEOUT", 5*time.Second); err != nil {
		return nil, loadError(ctx, cfg.Profile, err)
	}
	if cfg.RevocationCacheTTL, err = envDuration("REVOCATION_CACHE_TTL", 30*time.Second); err != nil {
		return nil, loadError(ctx, cfg.Profile, err)
	}
	if cfg.OTELMetricsExportInterval, err = envDuration("OTEL_METRICS_EXPORT_INTERVAL", 15*time.Second); err != nil {
		return nil, loadError(ctx, cfg.Profile, err)
	}
	if cfg.ShutdownTimeout, err = envDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, loadError(ctx, cfg.Profile, err)
	}
	if cfg.LoginRateLimitRPM, err = envInt("LOGIN_RATE_LIMIT_RPM", 30); err != nil {
		return nil, loadError(ctx, cfg.Profile, err)
	}
	if cfg.RegisterRateLimitRPM, err = envInt("REGISTER_RATE_LIMIT_RPM", 10); err != nil {
		return nil, loadError(ctx, cfg.Profile, err)
	}
	if cfg.OTELMetricsEnabled, err = envBool("OTEL_METRICS_ENABLED", false); err != nil {
		return nil, loadError(ctx, cfg.Profile, err)
	}
	if cfg.OTELTracesEnabled, err = envBool("OTEL_TRACES_ENABLED", false); err != nil {
		return nil, loadError(ctx, cfg.Profile, err)
	}
	if cfg.OTELExporterOTLPInsecure, err = envBool("OTEL_EXPORTER_OTLP_INSECURE", true); err != nil {
		return nil, loadError(ctx, cfg.Profile, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, loadError(ctx, cfg.Profile, err)
	}
	recordConfigValidationEvent(ctx, cfg.Profile, "success", "none")
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecretBase64 == "" {
		return fmt.Errorf("validate config: JWT_SECRET_BASE64 is required")
	}
	key, err := base64.StdEncoding.DecodeString(c.JWTSecretBase64)
	if err != nil {
		return fmt.Errorf("validate config: JWT_SECRET_BASE64 is not valid base64")
	}
	if len(key) < minSigningKeyBytes {
		return fmt.Errorf("validate config: signing key must be at least %d bytes, got %d", minSigningKeyBytes, len(key))
	}
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("validate config: unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("validate config: DATABASE_URL is required")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("validate config: token TTLs must be positive")
	}
	if c.ClientRegistryURL == "" {
		return fmt.Errorf("validate config: CLIENT_REGISTRY_URL is required")
	}
	return nil
}

func loadError(ctx context.Context, profile string, err error) error {
	recordConfigValidationEvent(ctx, profile, "failure", classifyConfigLoadError(err))
	return err
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func envInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return b, nil
}
