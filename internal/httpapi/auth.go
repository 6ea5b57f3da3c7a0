package httpapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sacolalabs/ideiad/internal/auth"
)

// RegisterRequest is the request body for POST /api/auth/register.
type RegisterRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"senha"`
	Name     *string `json:"nome"`
}

// LoginRequest is the request body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"senha"`
}

// GoogleCallbackRequest is the request body for POST /api/auth/google/callback.
// RedirectURI is accepted for wire compatibility; the configured redirect is
// what the token exchange uses.
type GoogleCallbackRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

// UserResponse is the authenticated-user wire form: profile plus a fresh
// token.
type UserResponse struct {
	ID         int64   `json:"id"`
	Email      string  `json:"email"`
	Name       *string `json:"nome"`
	PhotoURL   *string `json:"foto_url"`
	AuthMethod string  `json:"metodo_auth"`
	Role       string  `json:"role"`
	Token      string  `json:"token"`
}

// GoogleLoginResponse is the response body for GET /api/auth/google/login.
type GoogleLoginResponse struct {
	AuthURL string `json:"auth_url"`
}

func userResponse(u *auth.AuthenticatedUser) UserResponse {
	return UserResponse{
		ID:         u.User.ID,
		Email:      u.User.Email,
		Name:       u.User.Name,
		PhotoURL:   u.User.PhotoURL,
		AuthMethod: u.User.AuthMethod,
		Role:       u.User.Role,
		Token:      u.Token,
	}
}

func (s *Server) handleRegister(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid register request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	user, err := s.auth.Register(c.Request().Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			return echo.NewHTTPError(http.StatusBadRequest, "email already registered")
		}
		s.logger.Error("register failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, userResponse(user))
}

func (s *Server) handleLogin(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid login request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user, err := s.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
		case errors.Is(err, auth.ErrInactiveUser):
			return echo.NewHTTPError(http.StatusForbidden, "user is inactive")
		default:
			s.logger.Error("login failed", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}
	return c.JSON(http.StatusOK, userResponse(user))
}

func (s *Server) handleGoogleLogin(c echo.Context) error {
	url, err := s.auth.GoogleAuthURL()
	if err != nil {
		if errors.Is(err, auth.ErrGoogleNotConfigured) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "google login is not configured")
		}
		s.logger.Error("google login url failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, GoogleLoginResponse{AuthURL: url})
}

func (s *Server) handleGoogleCallback(c echo.Context) error {
	var req GoogleCallbackRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid google callback request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code is required")
	}

	user, err := s.auth.GoogleExchange(c.Request().Context(), req.Code)
	if err != nil {
		if errors.Is(err, auth.ErrGoogleNotConfigured) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "google login is not configured")
		}
		s.logger.Warn("google code exchange failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusUnauthorized, "google authentication failed")
	}
	return c.JSON(http.StatusOK, userResponse(user))
}

func (s *Server) handleMe(c echo.Context) error {
	ident, ok := identityFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	user, err := s.auth.Me(c.Request().Context(), ident)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		s.logger.Error("loading current user failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, user)
}
