package api_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/starkbank-ledger/internal/api_gateway/handler"
	"github.com/starkbank-ledger/internal/api_gateway/middleware"
	"github.com/starkbank-ledger/internal/api_gateway/service"
	"github.com/starkbank-ledger/internal/config"
	"github.com/starkbank-ledger/internal/platform/metrics"
)

// Services groups what the HTTP surface calls into
type Services struct {
	Accounts     service.AccountService
	Transactions service.TransactionService
	Sessions     service.SessionService
	HealthChecks map[string]HealthCheck // Keyed by backend name
	Metrics      *metrics.Metrics       // Optional
}

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
	httpRouter *gin.Engine
}

// NewServer creates and configures a new HTTP server with the given services
func NewServer(log *slog.Logger, cfg *config.Config, services Services) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	setupRouter(log, httpRouter,
		handler.NewAccountHandler(log, services.Accounts),
		handler.NewTransactionHandler(log, services.Transactions),
		handler.NewSessionHandler(log, services.Sessions),
		routerOptions{
			checks:       services.HealthChecks,
			metrics:      services.Metrics,
			metricsPath:  cfg.Metrics.Path,
			loginLimiter: newLoginLimiter(cfg),
		},
	)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Handler exposes the configured router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// Start begins listening for HTTP requests and blocks until the server is stopped
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server. In-flight requests get until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}

func newLoginLimiter(cfg *config.Config) *middleware.ClientLimiter {
	if cfg.Server.LoginRate <= 0 {
		return nil
	}
	return middleware.NewClientLimiter(cfg.Server.LoginRate, cfg.Server.LoginBurst)
}
