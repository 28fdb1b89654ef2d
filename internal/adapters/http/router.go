package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/go-api-client/internal/adapters/http/dto"
	"github.com/jsamuelsen/go-api-client/internal/adapters/http/handlers"
	"github.com/jsamuelsen/go-api-client/internal/adapters/http/middleware"
	"github.com/jsamuelsen/go-api-client/internal/platform/config"
	"github.com/jsamuelsen/go-api-client/internal/platform/telemetry"
	"github.com/jsamuelsen/go-api-client/internal/ports"
)

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	// Logger is the structured logger for request logging.
	Logger *slog.Logger

	// ServiceName names the server spans.
	ServiceName string

	// HealthHandler serves /-/ endpoints. Optional.
	HealthHandler *handlers.HealthHandler

	// SandboxHandler serves /api/v1 endpoints.
	SandboxHandler *handlers.SandboxHandler

	// Timeout is the /api/v1 request deadline. Zero disables it.
	Timeout time.Duration

	// MaxRequestSize caps request bodies. Zero disables it.
	MaxRequestSize int64
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery
//  2. Body limit
//  3. Request ID and correlation ID
//  4. OpenTelemetry tracing and metrics
//  5. Logging (skips health endpoints)
//
// Route groups:
//   - /-/ health, build info and metrics
//   - /api/v1/ sandbox endpoints, with the request deadline
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.BodyLimit(cfg.MaxRequestSize),
		middleware.RequestID(),
		middleware.CorrelationID(),
	)
	engine.Use(telemetry.Middleware(cfg.ServiceName)...)
	engine.Use(middleware.Logging(cfg.Logger))

	engine.NoRoute(func(c *gin.Context) {
		dto.AbortWithErrorType(c, dto.ErrorTypeNotFound, "route not found")
	})

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterHealthRoutes(engine.Group("/-"))
	}

	if cfg.SandboxHandler != nil {
		apiV1 := engine.Group("/api/v1", middleware.Deadline(cfg.Timeout))
		cfg.SandboxHandler.RegisterSandboxRoutes(apiV1)
	}
}

// NewRouterConfig wires the sandbox handlers for cfg. Tokens come from
// cfg.Tokens and cfg.ExpiredTokens.
func NewRouterConfig(
	cfg *config.SandboxConfig,
	serviceName string,
	registry ports.HealthRegistry,
	buildInfo handlers.BuildInfo,
	logger *slog.Logger,
) RouterConfig {
	tokens := middleware.NewStaticTokens(cfg.Tokens, cfg.ExpiredTokens)

	return RouterConfig{
		Logger:         logger,
		ServiceName:    serviceName,
		HealthHandler:  handlers.NewHealthHandler(registry, buildInfo),
		SandboxHandler: handlers.NewSandboxHandler(tokens, logger),
		Timeout:        cfg.RequestTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
	}
}
