package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"tenant-registry/backend/pkg/models"
)

// CreateUser stores a new user
// (POST /users/)
func (s *Server) CreateUser(c echo.Context) error {
	var in models.UserCreate
	if err := bindBody(c, &in); err != nil {
		return err
	}

	user, err := s.Users.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

// GetUser returns a single user
// (GET /users/{id})
func (s *Server) GetUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	user, err := s.Users.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

// ListUsers returns every user
// (GET /users)
func (s *Server) ListUsers(c echo.Context) error {
	users, err := s.Users.List(c.Request().Context())
	if err != nil {
		return err
	}
	if users == nil {
		users = []*models.User{}
	}

	return c.JSON(http.StatusOK, users)
}
