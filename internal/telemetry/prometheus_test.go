package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetrics_Middleware(t *testing.T) {
	m := NewHTTPMetrics()

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/users/:id", func(c echo.Context) error {
		if c.Param("id") == "404" {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return c.String(http.StatusOK, "ok")
	})

	for _, path := range []string{"/users/1", "/users/2", "/users/404"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/users/:id", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/users/:id", "404")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.requestsInFlight))
}

func TestHTTPMetrics_MiddlewarePropagatesError(t *testing.T) {
	m := NewHTTPMetrics()

	var seen error
	e := echo.New()
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			seen = next(c)
			return seen
		}
	})
	e.Use(m.Middleware())
	e.GET("/tenants/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "Tenant not found")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tenants/9", nil))

	require.Error(t, seen)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1, strings.Count(rec.Body.String(), "Tenant not found"))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/tenants/:id", "404")))
}

func TestHTTPMetrics_Handler(t *testing.T) {
	m := NewHTTPMetrics()
	m.requestsTotal.WithLabelValues("GET", "/tenants", "200").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tenant_registry_http_requests_total{method="GET",route="/tenants",status="200"} 1`)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordCreated(t.Context(), "user")
		m.RecordStorageError(t.Context(), "user", "create")
	})
	assert.NotNil(t, GetMetrics())
	assert.NotPanics(t, func() { GetMetrics().RecordCreated(t.Context(), "tenant") })
}
