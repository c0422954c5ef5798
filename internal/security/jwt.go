package security

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenMalformed = errors.New("malformed token")
	ErrTokenSignature = errors.New("invalid token signature")
	ErrTokenExpired   = errors.New("expired token")
)

// minKeyLen is the HS256 floor: a key shorter than the hash output
// weakens the MAC, so short keys are rejected at construction time.
const minKeyLen = 32

type Claims struct {
	UserType string `json:"userType,omitempty"`
	jwt.RegisteredClaims
}

// TokenCodec mints and verifies the signed access/refresh tokens. The
// signing key is fixed at construction; there is no ambient key lookup.
type TokenCodec struct {
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenCodec(base64Secret string, accessTTL, refreshTTL time.Duration) (*TokenCodec, error) {
	key, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}
	if len(key) < minKeyLen {
		return nil, fmt.Errorf("signing key too short: got %d bytes, need at least %d", len(key), minKeyLen)
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token TTLs must be positive")
	}
	return &TokenCodec{key: key, accessTTL: accessTTL, refreshTTL: refreshTTL}, nil
}

// MintAccessToken issues a short-lived token carrying the user type claim.
func (c *TokenCodec) MintAccessToken(subject, userType string) (string, error) {
	return c.mint(subject, userType, c.accessTTL)
}

// MintRefreshToken issues a long-lived token with no extra claims.
func (c *TokenCodec) MintRefreshToken(subject string) (string, error) {
	return c.mint(subject, "", c.refreshTTL)
}

func (c *TokenCodec) mint(subject, userType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserType: userType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
}

// Parse verifies the signature and expiry and returns the decoded claims.
// Failures are one of ErrTokenMalformed, ErrTokenSignature, ErrTokenExpired.
func (c *TokenCodec) Parse(raw string) (*Claims, error) {
	claims, err := c.decode(raw)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// SubjectAllowingExpired returns the subject even when the token's embedded
// expiry has elapsed. Every other failure kind still propagates; this exists
// for the refresh path, where the identity inside a stale token is needed.
func (c *TokenCodec) SubjectAllowingExpired(raw string) (string, error) {
	claims, err := c.decode(raw)
	if err != nil && !errors.Is(err, ErrTokenExpired) {
		return "", err
	}
	if claims == nil || claims.Subject == "" {
		return "", ErrTokenMalformed
	}
	return claims.Subject, nil
}

// IsValidFor reports whether the token parses, is unexpired, and was issued
// for exactly the expected subject.
func (c *TokenCodec) IsValidFor(raw, subject string) bool {
	claims, err := c.decode(raw)
	if err != nil {
		return false
	}
	return claims.Subject == subject
}

func (c *TokenCodec) decode(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing algorithm: %v", token.Header["alg"])
		}
		return c.key, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			// Claims are decoded before expiry validation, so the payload
			// stays usable for callers that tolerate expiry.
			return claims, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
			return nil, ErrTokenSignature
		default:
			return nil, ErrTokenMalformed
		}
	}
	if !tok.Valid {
		return nil, ErrTokenSignature
	}
	return claims, nil
}
