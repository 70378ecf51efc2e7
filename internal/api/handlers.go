// Package api contains the HTTP handlers for the tenant registry.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"tenant-registry/backend/internal/logging"
	"tenant-registry/backend/internal/repository"
	"tenant-registry/backend/internal/services"
	"tenant-registry/backend/pkg/models"
)

const (
	serviceName    = "tenant-registry"
	serviceVersion = "1.0.0"

	healthTimeout = 2 * time.Second
)

// UserService is what the handlers need from the user service.
type UserService interface {
	Create(ctx context.Context, in models.UserCreate) (*models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}

// TenantService is what the handlers need from the tenant service.
type TenantService interface {
	Create(ctx context.Context, in models.TenantCreate) (*models.Tenant, error)
	Get(ctx context.Context, id int64) (*models.Tenant, error)
	List(ctx context.Context) ([]*models.Tenant, error)
}

// Pinger reports whether storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server holds the dependencies for the API server.
type Server struct {
	Users   UserService
	Tenants TenantService
	DB      Pinger

	logger *logging.Logger
}

// NewServer creates a new Server.
func NewServer(users UserService, tenants TenantService, db Pinger) *Server {
	return &Server{Users: users, Tenants: tenants, DB: db}
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Database  string    `json:"database"`
}

func (s *Server) log() *logging.Logger {
	if s.logger == nil {
		return logging.Nop()
	}
	return s.logger
}

// HandleHealth reports service health, including a database ping
// (GET /health)
func (s *Server) HandleHealth(c echo.Context) error {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Service:   serviceName,
		Version:   serviceVersion,
		Database:  "ok",
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	code := http.StatusOK
	if err := s.DB.Ping(ctx); err != nil {
		s.log().Warn("Health check: database unreachable", "error", err)
		status.Status = "degraded"
		status.Database = "unavailable"
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail"`
	Instance string       `json:"instance,omitempty"`
	Errors   []FieldError `json:"errors,omitempty"`
}

// ErrorHandler renders every error returned by a handler as an RFC 7807
// problem. Storage failures without a specific mapping become 500 and are
// logged; the client only sees a generic detail.
func ErrorHandler(logger *logging.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		problem := classify(err)
		problem.Type = "about:blank"
		problem.Title = http.StatusText(problem.Status)
		problem.Instance = c.Request().URL.Path

		if problem.Status >= http.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", problem.Status,
				"error", err,
			)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(problem.Status)
		} else {
			c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
			writeErr = c.JSON(problem.Status, problem)
		}
		if writeErr != nil {
			logger.Error("failed to write error response", "error", writeErr)
		}
	}
}

func classify(err error) ProblemDetails {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return ProblemDetails{
			Status: http.StatusUnprocessableEntity,
			Detail: verr.Error(),
			Errors: verr.Fields,
		}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		detail := http.StatusText(he.Code)
		if he.Message != nil {
			detail = fmt.Sprint(he.Message)
		}
		return ProblemDetails{Status: he.Code, Detail: detail}
	}

	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return ProblemDetails{Status: http.StatusNotFound, Detail: "User not found"}
	case errors.Is(err, repository.ErrTenantNotFound):
		return ProblemDetails{Status: http.StatusNotFound, Detail: "Tenant not found"}
	case errors.Is(err, repository.ErrEmailTaken):
		return ProblemDetails{Status: http.StatusConflict, Detail: "User with this email already exists"}
	case errors.Is(err, services.ErrPasswordTooLong):
		return ProblemDetails{
			Status: http.StatusUnprocessableEntity,
			Detail: err.Error(),
			Errors: []FieldError{{Field: "password", Message: err.Error()}},
		}
	}

	return ProblemDetails{Status: http.StatusInternalServerError, Detail: "Internal server error"}
}
