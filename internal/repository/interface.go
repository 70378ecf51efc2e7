package repository

import (
	"context"

	"tenant-registry/backend/pkg/models"
)

// UserStore persists users.
type UserStore interface {
	// CreateUser inserts user and fills in the generated id and timestamps.
	CreateUser(ctx context.Context, user *models.User) error
	// GetUser retrieves a user by id, or ErrUserNotFound.
	GetUser(ctx context.Context, id int64) (*models.User, error)
	// ListUsers returns every user ordered by id.
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// TenantStore persists tenants.
type TenantStore interface {
	// CreateTenant inserts tenant and fills in the generated id and timestamps.
	CreateTenant(ctx context.Context, tenant *models.Tenant) error
	// GetTenant retrieves a tenant by id, or ErrTenantNotFound.
	GetTenant(ctx context.Context, id int64) (*models.Tenant, error)
	// ListTenants returns every tenant ordered by id.
	ListTenants(ctx context.Context) ([]*models.Tenant, error)
}

// Repository is the full storage surface used by the service layer.
type Repository interface {
	UserStore
	TenantStore
	// Ping checks that storage is reachable.
	Ping(ctx context.Context) error
}
