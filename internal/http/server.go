// Package http provides the HTTP API for logicguard.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/logicguard/logicguard/internal/analysis"
	"github.com/logicguard/logicguard/internal/auth"
	"github.com/logicguard/logicguard/internal/store"
)

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// RateLimit is the per-IP sustained request rate per second; RateBurst
	// is the burst allowance. A non-positive RateLimit disables limiting.
	RateLimit float64
	RateBurst int
}

// Server provides the HTTP endpoints for logicguard.
type Server struct {
	echo     *echo.Echo
	analyzer analysis.Service
	auth     auth.Service
	store    *store.Store
	logger   *zap.Logger
	config   *Config
}

// NewServer creates a new HTTP server.
func NewServer(analyzer analysis.Service, authSvc auth.Service, st *store.Store, logger *zap.Logger, cfg *Config) (*Server, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("analysis service is required")
	}
	if authSvc == nil {
		return nil, fmt.Errorf("auth service is required")
	}
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "0.0.0.0",
			Port: 5000,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(cfg.RateLimit),
				Burst:     cfg.RateBurst,
				ExpiresIn: 3 * time.Minute,
			}),
		}))
	}
	e.Use(metricsMiddleware())
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
		echo:     e,
		analyzer: analyzer,
		auth:     authSvc,
		store:    st,
		logger:   logger,
		config:   cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/supported-languages", s.handleSupportedLanguages)

	// Analysis works anonymously; a session only adds history persistence.
	optional := auth.OptionalMiddleware(s.auth)
	api.POST("/analyze", s.handleAnalyze, optional)
	api.POST("/chat", s.handleChat, optional)

	api.POST("/auth/register", s.handleRegister)
	api.POST("/auth/login", s.handleLogin)
	api.POST("/auth/oauth", s.handleOAuth)

	required := auth.Middleware(s.auth)
	api.POST("/auth/logout", s.handleLogout, required)
	api.GET("/auth/me", s.handleMe, required)

	api.GET("/projects", s.handleListProjects, required)
	api.POST("/projects", s.handleCreateProject, required)
	api.PUT("/projects/:id/archive", s.handleArchiveProject, required)
	api.GET("/projects/:id/analyses", s.handleProjectAnalyses, required)

	api.GET("/history", s.handleListHistory, required)
	api.GET("/history/:id", s.handleGetHistory, required)
	api.DELETE("/history/:id", s.handleDeleteHistory, required)

	api.GET("/settings", s.handleGetSettings, required)
	api.PUT("/settings", s.handleUpdateSettings, required)
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

// ServeHTTP dispatches to the underlying router. It exists so tests can
// drive the full middleware chain without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// errorHandler collapses every error that escapes a handler into the
// {success:false, error} envelope.
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "internal server error"

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(status)
			}
		}

		if status >= http.StatusInternalServerError {
			logger.Error("request failed", zap.Int("status", status), zap.Error(err))
		}

		if werr := respondError(c, status, message); werr != nil {
			logger.Error("failed to write error response", zap.Error(werr))
		}
	}
}
