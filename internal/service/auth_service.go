package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kenacbank/auth-service/internal/domain"
	"github.com/kenacbank/auth-service/internal/observability"
	"github.com/kenacbank/auth-service/internal/registry"
	"github.com/kenacbank/auth-service/internal/repository"
	"github.com/kenacbank/auth-service/internal/security"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password;
	// callers must not be able to tell the two apart.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrBlacklisted        = errors.New("user is blacklisted")
	ErrEmailTaken         = errors.New("email already exists")
	ErrAccessDenied       = errors.New("access denied")
)

type LoginResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

type RegisterRequest struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// AuthService owns the login, registration, refresh and request-validation
// flows. It is the only place where codec, ledger and registry failures are
// folded into the service's error taxonomy.
type AuthService struct {
	users       repository.UserRepository
	tokens      repository.TokenRepository
	codec       *security.TokenCodec
	registry    registry.Client
	revocations RevocationCacheStore
	cacheTTL    time.Duration
	logger      *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens repository.TokenRepository,
	codec *security.TokenCodec,
	registryClient registry.Client,
	revocations RevocationCacheStore,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *AuthService {
	if revocations == nil {
		revocations = NewNoopRevocationCacheStore()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:       users,
		tokens:      tokens,
		codec:       codec,
		registry:    registryClient,
		revocations: revocations,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// Login verifies credentials, sweeps every previously active access token
// for the user and records the freshly minted one. Refresh tokens are
// deliberately never ledger-tracked.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			observability.RecordAuthLogin("invalid_credentials")
			return nil, ErrInvalidCredentials
		}
		observability.RecordAuthLogin("error")
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !security.VerifyPassword(user.PasswordHash, password) {
		observability.RecordAuthLogin("invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	if user.UserType == domain.UserTypeClient {
		flagged, err := s.registry.IsBlacklisted(ctx, user.ID)
		if err != nil {
			observability.RecordAuthLogin("error")
			return nil, fmt.Errorf("blacklist check: %w", err)
		}
		if flagged {
			observability.RecordAuthLogin("blacklisted")
			return nil, ErrBlacklisted
		}
	}

	access, err := s.codec.MintAccessToken(user.UserCode, string(user.UserType))
	if err != nil {
		observability.RecordAuthLogin("error")
		return nil, fmt.Errorf("mint access token: %w", err)
	}
	refresh, err := s.codec.MintRefreshToken(user.UserCode)
	if err != nil {
		observability.RecordAuthLogin("error")
		return nil, fmt.Errorf("mint refresh token: %w", err)
	}

	if err := s.supersede(ctx, user.ID, access); err != nil {
		observability.RecordAuthLogin("error")
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged in", "email", user.Email)
	observability.RecordAuthLogin("success")
	return &LoginResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// Register creates the credential and then the downstream client profile.
// The two writes are not atomic across services: a registry failure fails
// the registration and may leave an orphaned credential behind.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	if _, err := s.users.FindByEmail(req.Email); err == nil {
		observability.RecordAuthRegister("email_taken")
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		observability.RecordAuthRegister("error")
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		observability.RecordAuthRegister("error")
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		UserCode:     uuid.NewString(),
		Name:         req.FirstName,
		Surname:      req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
		UserType:     domain.UserTypeClient,
	}
	if err := s.users.Create(user); err != nil {
		observability.RecordAuthRegister("error")
		return nil, fmt.Errorf("create user: %w", err)
	}

	reg := registry.ClientRegistration{
		UserID:  user.ID,
		Name:    user.Name,
		Surname: user.Surname,
		Email:   user.Email,
	}
	if err := s.registry.CreateClient(ctx, reg); err != nil {
		observability.RecordAuthRegister("error")
		return nil, fmt.Errorf("create client profile: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered", "email", user.Email)
	observability.RecordAuthRegister("success")
	return user, nil
}

// Refresh mints a fresh access token from a live refresh token. The subject
// is recovered tolerating expiry so that a stale token still yields a clean
// rejection rather than a decode failure.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	subject, err := s.codec.SubjectAllowingExpired(refreshToken)
	if err != nil {
		observability.RecordAuthRefresh("invalid")
		return nil, err
	}
	if !s.codec.IsValidFor(refreshToken, subject) {
		observability.RecordAuthRefresh("expired")
		return nil, security.ErrTokenExpired
	}
	user, err := s.users.FindByUserCode(subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			observability.RecordAuthRefresh("unknown_subject")
			return nil, ErrAccessDenied
		}
		observability.RecordAuthRefresh("error")
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	access, err := s.codec.MintAccessToken(user.UserCode, string(user.UserType))
	if err != nil {
		observability.RecordAuthRefresh("error")
		return nil, fmt.Errorf("mint access token: %w", err)
	}
	if err := s.supersede(ctx, user.ID, access); err != nil {
		observability.RecordAuthRefresh("error")
		return nil, err
	}

	observability.RecordAuthRefresh("success")
	return &LoginResult{User: user, AccessToken: access, RefreshToken: refreshToken}, nil
}

// Authenticate validates a presented access token end to end: signature and
// expiry via the codec, then revocation via the ledger. Returns the bound
// principal on success.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*domain.User, error) {
	claims, err := s.codec.Parse(raw)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByUserCode(claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrAccessDenied
		}
		return nil, fmt.Errorf("lookup principal: %w", err)
	}
	if !s.codec.IsValidFor(raw, user.UserCode) {
		return nil, ErrAccessDenied
	}

	revoked, err := s.revocations.IsRevoked(ctx, raw)
	if err != nil {
		// cache trouble is not an auth decision; fall through to the ledger
		s.logger.WarnContext(ctx, "revocation cache lookup failed", "error", err)
		revoked = false
	}
	if revoked {
		return nil, ErrAccessDenied
	}
	valid, err := s.tokens.IsCurrentlyValid(raw)
	if err != nil {
		return nil, fmt.Errorf("ledger lookup: %w", err)
	}
	if !valid {
		if err := s.revocations.MarkRevoked(ctx, raw, s.cacheTTL); err != nil {
			s.logger.WarnContext(ctx, "revocation cache store failed", "error", err)
		}
		return nil, ErrAccessDenied
	}
	return user, nil
}

// supersede runs the invalidate-then-record sequence. Two concurrent logins
// for the same user can interleave here and leave both tokens active; the
// race is accepted, see DESIGN.md.
func (s *AuthService) supersede(ctx context.Context, userID uint, access string) error {
	if _, err := s.tokens.InvalidateAllActive(userID); err != nil {
		return fmt.Errorf("invalidate active tokens: %w", err)
	}
	if _, err := s.tokens.Record(access, userID); err != nil {
		return fmt.Errorf("record access token: %w", err)
	}
	// a re-issued token string may still sit in the revocation cache
	if err := s.revocations.Clear(ctx, access); err != nil {
		s.logger.WarnContext(ctx, "revocation cache clear failed", "error", err)
	}
	return nil
}
