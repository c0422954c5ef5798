package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kenacbank/auth-service/internal/http/middleware"
	"github.com/kenacbank/auth-service/internal/http/response"
	"github.com/kenacbank/auth-service/internal/observability"
	"github.com/kenacbank/auth-service/internal/security"
	"github.com/kenacbank/auth-service/internal/service"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{auth: auth, logger: logger}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusBadRequest, "Invalid request body.", nil)
		return
	}
	_, err := h.auth.Register(r.Context(), service.RegisterRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			response.JSON(w, http.StatusBadRequest, "Email already exists", nil)
			return
		}
		h.logger.ErrorContext(r.Context(), "register failed", "error", err)
		response.JSON(w, http.StatusInternalServerError, "Failed to register user.", nil)
		return
	}
	observability.Audit(r, "auth.register", slog.String("email", req.Email))
	response.JSON(w, http.StatusOK, "User registered successfully.", nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Auth(w, http.StatusBadRequest, "Invalid request body.", "", "")
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Auth(w, http.StatusBadRequest, "Invalid email or password.", "", "")
		case errors.Is(err, service.ErrBlacklisted):
			response.Auth(w, http.StatusForbidden, "User is blacklisted and cannot login.", "", "")
		default:
			h.logger.ErrorContext(r.Context(), "login failed", "error", err)
			response.Auth(w, http.StatusInternalServerError, "Failed to login user.", "", "")
		}
		return
	}
	observability.Audit(r, "auth.login", slog.String("email", req.Email))
	response.Auth(w, http.StatusOK, "Login successful", res.AccessToken, res.RefreshToken)
}

// RefreshToken exchanges the bearer refresh token for a fresh access token.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		response.Auth(w, http.StatusUnauthorized, "Access Denied", "", "")
		return
	}
	raw := header[len("Bearer "):]

	res, err := h.auth.Refresh(r.Context(), raw)
	if err != nil {
		switch {
		case errors.Is(err, security.ErrTokenExpired):
			response.Auth(w, http.StatusForbidden, "Expired token", "", "")
		case errors.Is(err, security.ErrTokenMalformed),
			errors.Is(err, security.ErrTokenSignature),
			errors.Is(err, service.ErrAccessDenied):
			response.Auth(w, http.StatusUnauthorized, "Access Denied", "", "")
		default:
			h.logger.ErrorContext(r.Context(), "refresh failed", "error", err)
			response.Auth(w, http.StatusInternalServerError, "Failed to refresh token.", "", "")
		}
		return
	}
	response.Auth(w, http.StatusOK, "Token refreshed successfully", res.AccessToken, res.RefreshToken)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		response.JSON(w, http.StatusUnauthorized, "No user is currently logged in.", nil)
		return
	}
	response.JSON(w, http.StatusOK, "Logged in user retrieved successfully.", user)
}
