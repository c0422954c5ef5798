package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/kenacbank/auth-service/internal/domain"
	"github.com/kenacbank/auth-service/internal/http/response"
	"github.com/kenacbank/auth-service/internal/observability"
	"github.com/kenacbank/auth-service/internal/security"
)

type contextKey string

const (
	PrincipalContextKey contextKey = "principal"

	msgAccessDenied = "Access Denied"
	msgExpiredToken = "Expired token"
)

// Authenticator resolves a raw bearer token to the user it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (*domain.User, error)
}

// AuthMiddleware guards requests with a bearer token gate. Requests without
// an Authorization header, or with one that does not carry the Bearer
// scheme, pass through unauthenticated; route-level checks decide whether
// that is acceptable. A token that is presented gets validated in full.
func AuthMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := PrincipalFromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				observability.RecordAccessTokenValidation(r.Context(), "missing")
				next.ServeHTTP(w, r)
				return
			}
			raw := header[len("Bearer "):]

			user, err := auth.Authenticate(r.Context(), raw)
			if err != nil {
				if errors.Is(err, security.ErrTokenExpired) {
					observability.RecordAccessTokenValidation(r.Context(), "expired")
					response.Message(w, http.StatusForbidden, msgExpiredToken)
					return
				}
				observability.RecordAccessTokenValidation(r.Context(), "denied")
				response.Message(w, http.StatusUnauthorized, msgAccessDenied)
				return
			}
			observability.RecordAccessTokenValidation(r.Context(), "valid")
			ctx := context.WithValue(r.Context(), PrincipalContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests that reached the handler without a principal.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFromContext(r.Context()); !ok {
			response.Message(w, http.StatusUnauthorized, msgAccessDenied)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func PrincipalFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(PrincipalContextKey).(*domain.User)
	return u, ok
}
