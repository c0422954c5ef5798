package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kenacbank/auth-service/internal/http/handler"
	"github.com/kenacbank/auth-service/internal/http/middleware"
	"github.com/kenacbank/auth-service/internal/http/response"
)

type Dependencies struct {
	AuthHandler          *handler.AuthHandler
	Authenticator        middleware.Authenticator
	LoginRateLimitRPM    int
	RegisterRateLimitRPM int
	Readiness            func(*http.Request) error
	EnableOTelHTTP       bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.StructuredRequestLogger)

	loginLimiter := middleware.NewRateLimiter(dep.LoginRateLimitRPM, time.Minute).Middleware()
	registerLimiter := middleware.NewRateLimiter(dep.RegisterRateLimitRPM, time.Minute).Middleware()
	gate := middleware.AuthMiddleware(dep.Authenticator)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, http.StatusOK, "ok", nil)
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness != nil {
			if err := dep.Readiness(r); err != nil {
				response.JSON(w, http.StatusServiceUnavailable, "dependencies are not ready", nil)
				return
			}
		}
		response.JSON(w, http.StatusOK, "ready", nil)
	})

	r.Route("/auth", func(r chi.Router) {
		// The refresh token is never ledger-recorded, so it must not pass
		// the access-token gate; the handler validates it itself.
		r.Post("/refresh-token", dep.AuthHandler.RefreshToken)
		r.Group(func(r chi.Router) {
			r.Use(gate)
			r.With(registerLimiter).Post("/register", dep.AuthHandler.Register)
			r.With(loginLimiter).Post("/login", dep.AuthHandler.Login)
			r.With(middleware.RequireAuth).Get("/me", dep.AuthHandler.Me)
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
