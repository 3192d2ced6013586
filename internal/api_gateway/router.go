package api_gateway

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/starkbank-ledger/internal/api_gateway/handler"
	"github.com/starkbank-ledger/internal/api_gateway/middleware"
	"github.com/starkbank-ledger/internal/platform/metrics"
)

// HealthCheck probes one backend; a nil error means it is reachable
type HealthCheck func(ctx context.Context) error

const healthCheckTimeout = 2 * time.Second

// routerOptions carries the optional parts of the HTTP surface
type routerOptions struct {
	checks       map[string]HealthCheck
	metrics      *metrics.Metrics // nil disables instrumentation and the scrape endpoint
	metricsPath  string
	loginLimiter *middleware.ClientLimiter // nil disables throttling
}

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	accountHandler *handler.AccountHandler,
	transactionHandler *handler.TransactionHandler,
	sessionHandler *handler.SessionHandler,
	opts routerOptions,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))
	if opts.metrics != nil {
		r.Use(middleware.Metrics(opts.metrics))
	}

	// Signup and login hash passwords with bcrypt, so both are throttled per client
	throttled := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if opts.loginLimiter == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{opts.loginLimiter.Middleware(), h}
	}

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", throttled(accountHandler.Create)...)
			accounts.GET("/:id", accountHandler.GetByID)
			accounts.GET("/:id/transactions", transactionHandler.GetByAccountID)
		}

		// Queued for the transaction processor
		v1.POST("/transactions", transactionHandler.Create)

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", throttled(sessionHandler.Login)...)
			sessions.GET("/:id", sessionHandler.Get)
			sessions.DELETE("/:id", sessionHandler.Logout)
			sessions.POST("/:id/refresh", sessionHandler.Refresh)
			sessions.POST("/:id/deposits", sessionHandler.Deposit)
			sessions.POST("/:id/withdrawals", sessionHandler.Withdraw)
			sessions.POST("/:id/transfers", sessionHandler.Transfer)
		}
	}

	r.GET("/health", healthHandler(logger, opts.checks))
	if opts.metrics != nil {
		r.GET(opts.metricsPath, gin.WrapH(opts.metrics.Handler()))
	}
}

func healthHandler(logger *slog.Logger, checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		status := http.StatusOK
		backends := make(gin.H, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.Warn("Health check failed", "backend", name, "error", err)
				backends[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			backends[name] = "ok"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		c.JSON(status, gin.H{"status": overall, "backends": backends, "timestamp": time.Now().UTC()})
	}
}
