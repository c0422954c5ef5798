package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kenacbank/auth-service/internal/config"
	"github.com/kenacbank/auth-service/internal/domain"
	"github.com/kenacbank/auth-service/internal/http/handler"
	"github.com/kenacbank/auth-service/internal/http/router"
	"github.com/kenacbank/auth-service/internal/observability"
	"github.com/kenacbank/auth-service/internal/registry"
	"github.com/kenacbank/auth-service/internal/repository"
	"github.com/kenacbank/auth-service/internal/security"
	"github.com/kenacbank/auth-service/internal/service"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	DB            *gorm.DB
	Server        *http.Server
	Observability *observability.Runtime

	redisClient *redis.Client
}

// Build wires the full service from configuration: database, token codec,
// downstream client registry, revocation cache and the HTTP surface.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	runtime, err := observability.InitRuntime(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	db, err := OpenDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	codec, err := security.NewTokenCodec(cfg.JWTSecretBase64, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("build token codec: %w", err)
	}

	regClient, err := registry.NewHTTPClient(cfg.ClientRegistryURL, cfg.ClientRegistryTimeout)
	if err != nil {
		return nil, fmt.Errorf("build registry client: %w", err)
	}

	var redisClient *redis.Client
	var revocations service.RevocationCacheStore
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		revocations = service.NewRedisRevocationCacheStore(redisClient, "")
		logger.Info("revocation cache backed by redis", "addr", cfg.RedisAddr)
	} else {
		revocations = service.NewInMemoryRevocationCacheStore()
		logger.Info("revocation cache running in process memory")
	}

	auth := service.NewAuthService(
		repository.NewUserRepository(db),
		repository.NewTokenRepository(db),
		codec,
		regClient,
		revocations,
		cfg.RevocationCacheTTL,
		logger,
	)

	h := router.NewRouter(router.Dependencies{
		AuthHandler:          handler.NewAuthHandler(auth, logger),
		Authenticator:        auth,
		LoginRateLimitRPM:    cfg.LoginRateLimitRPM,
		RegisterRateLimitRPM: cfg.RegisterRateLimitRPM,
		Readiness:            readinessProbe(db, redisClient),
		EnableOTelHTTP:       cfg.OTELTracesEnabled,
	})
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		DB:            db,
		Server:        server,
		Observability: runtime,
		redisClient:   redisClient,
	}, nil
}

func OpenDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)}
	switch cfg.DatabaseDriver {
	case "postgres":
		return gorm.Open(postgres.Open(cfg.DatabaseURL), gormCfg)
	case "sqlite":
		return gorm.Open(sqlite.Open(cfg.DatabaseURL), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.User{}, &domain.UserToken{})
}

// Run serves HTTP until the context is cancelled or a termination signal
// arrives, then drains connections and flushes observability state.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info("http server listening", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
		defer cancel()
		a.Logger.Info("shutting down")
		return a.Server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	a.close()
	return err
}

func (a *App) close() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
	defer cancel()
	if a.Observability != nil {
		if err := a.Observability.Shutdown(shutdownCtx); err != nil {
			a.Logger.Warn("observability shutdown failed", "error", err)
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.Logger.Warn("redis close failed", "error", err)
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func readinessProbe(db *gorm.DB, redisClient *redis.Client) func(*http.Request) error {
	return func(r *http.Request) error {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		if redisClient != nil {
			if err := redisClient.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		return nil
	}
}
