// Package httpapi provides the HTTP API for ideiad.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sacolalabs/ideiad/internal/accesslog"
	"github.com/sacolalabs/ideiad/internal/auth"
	"github.com/sacolalabs/ideiad/internal/notes"
)

// Config holds HTTP server configuration.
type Config struct {
	Host        string
	Port        int
	CORSOrigins []string
}

// Server exposes the note, auth and access-log endpoints.
type Server struct {
	echo   *echo.Echo
	notes  notes.Service
	auth   *auth.Service
	tokens *auth.TokenService
	access *accesslog.Recorder
	logger *zap.Logger
	config *Config
}

// NewServer creates a new HTTP server.
func NewServer(noteSvc notes.Service, authSvc *auth.Service, tokens *auth.TokenService, access *accesslog.Recorder, metrics *Metrics, logger *zap.Logger, cfg *Config) (*Server, error) {
	if noteSvc == nil {
		return nil, fmt.Errorf("notes service cannot be nil")
	}
	if authSvc == nil {
		return nil, fmt.Errorf("auth service cannot be nil")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token service cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "0.0.0.0",
			Port: 8002,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	corsOrigins := cfg.CORSOrigins
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: corsOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	if metrics != nil {
		e.Use(metrics.Middleware())
	}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:   e,
		notes:  noteSvc,
		auth:   authSvc,
		tokens: tokens,
		access: access,
		logger: logger,
		config: cfg,
	}

	// Register routes
	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/", s.handleRoot)
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")

	// Public auth routes
	api.POST("/auth/register", s.handleRegister)
	api.POST("/auth/login", s.handleLogin)
	api.GET("/auth/google/login", s.handleGoogleLogin)
	api.POST("/auth/google/callback", s.handleGoogleCallback)

	// Access logging is open so the frontend can report before login.
	api.POST("/acessos", s.handleRecordAccess)

	// Authenticated routes
	authed := api.Group("", s.requireAuth)
	authed.GET("/auth/me", s.handleMe)
	authed.GET("/ideias", s.handleListNotes)
	authed.POST("/ideias", s.handleCreateNote)
	authed.POST("/ideias/buscar", s.handleSearchNotes)
	authed.GET("/ideias/:id", s.handleGetNote)
	authed.PUT("/ideias/:id", s.handleUpdateNote)
	authed.DELETE("/ideias/:id", s.handleDeleteNote)
}

// RootResponse is the response body for GET /.
type RootResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, RootResponse{Message: "Sacola de Ideias API", Status: "online"})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
