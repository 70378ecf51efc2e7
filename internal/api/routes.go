package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"tenant-registry/backend/internal/logging"
	"tenant-registry/backend/internal/telemetry"
)

// RouterOptions carries the optional pieces mounted next to the REST API.
type RouterOptions struct {
	Logger  *logging.Logger
	Metrics *telemetry.HTTPMetrics
	// MCP, when set, is mounted under /mcp.
	MCP http.Handler
}

// NewRouter builds the echo instance serving the whole HTTP surface.
func NewRouter(s *Server, opts RouterOptions) *echo.Echo {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	s.logger = logger

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler(logger)

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(otelecho.Middleware(serviceName))
	if opts.Metrics != nil {
		e.Use(opts.Metrics.Middleware())
		e.GET("/metrics", echo.WrapHandler(opts.Metrics.Handler()))
	}

	RegisterHandlers(e, s)

	e.GET("/openapi.yaml", SpecHandler)
	e.GET("/docs", SwaggerHandler)

	if opts.MCP != nil {
		e.Any("/mcp", echo.WrapHandler(opts.MCP))
		e.Any("/mcp/*", echo.WrapHandler(opts.MCP))
	}

	return e
}

// RegisterHandlers mounts the user, tenant and health routes. Collection
// routes answer with and without a trailing slash.
func RegisterHandlers(e *echo.Echo, s *Server) {
	e.GET("/health", s.HandleHealth)

	e.POST("/users", s.CreateUser)
	e.POST("/users/", s.CreateUser)
	e.GET("/users", s.ListUsers)
	e.GET("/users/", s.ListUsers)
	e.GET("/users/:id", s.GetUser)

	e.POST("/tenants", s.CreateTenant)
	e.POST("/tenants/", s.CreateTenant)
	e.GET("/tenants", s.ListTenants)
	e.GET("/tenants/", s.ListTenants)
	e.GET("/tenants/:id", s.GetTenant)
}

// RequestLogger emits one structured log event per request.
func RequestLogger(logger *logging.Logger) echo.MiddlewareFunc {
	zl := logger.Zerolog()
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := zl.Info()
			if v.Status >= http.StatusInternalServerError {
				event = zl.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
