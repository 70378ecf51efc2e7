package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"tenant-registry/backend/pkg/models"
)

// CreateTenant stores a new tenant
// (POST /tenants/)
func (s *Server) CreateTenant(c echo.Context) error {
	var in models.TenantCreate
	if err := bindBody(c, &in); err != nil {
		return err
	}

	tenant, err := s.Tenants.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tenant)
}

// GetTenant returns a single tenant
// (GET /tenants/{id})
func (s *Server) GetTenant(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	tenant, err := s.Tenants.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tenant)
}

// ListTenants returns every tenant
// (GET /tenants)
func (s *Server) ListTenants(c echo.Context) error {
	tenants, err := s.Tenants.List(c.Request().Context())
	if err != nil {
		return err
	}
	if tenants == nil {
		tenants = []*models.Tenant{}
	}

	return c.JSON(http.StatusOK, tenants)
}
