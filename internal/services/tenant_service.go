package services

import (
	"context"
	"errors"

	"tenant-registry/backend/internal/repository"
	"tenant-registry/backend/internal/telemetry"
	"tenant-registry/backend/pkg/models"
)

// TenantService is a service for managing tenants.
type TenantService struct {
	store   repository.TenantStore
	metrics *telemetry.Metrics
}

// NewTenantService creates a new TenantService.
func NewTenantService(store repository.TenantStore, metrics *telemetry.Metrics) *TenantService {
	return &TenantService{store: store, metrics: metrics}
}

// Create stores a new tenant.
func (s *TenantService) Create(ctx context.Context, in models.TenantCreate) (*models.Tenant, error) {
	tenant := in.Tenant()
	if err := s.store.CreateTenant(ctx, tenant); err != nil {
		s.metrics.RecordStorageError(ctx, "tenant", "create")
		return nil, err
	}

	s.metrics.RecordCreated(ctx, "tenant")
	return tenant, nil
}

// Get retrieves a tenant by id.
func (s *TenantService) Get(ctx context.Context, id int64) (*models.Tenant, error) {
	tenant, err := s.store.GetTenant(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrTenantNotFound) {
		s.metrics.RecordStorageError(ctx, "tenant", "get")
	}
	return tenant, err
}

// List returns all tenants.
func (s *TenantService) List(ctx context.Context) ([]*models.Tenant, error) {
	tenants, err := s.store.ListTenants(ctx)
	if err != nil {
		s.metrics.RecordStorageError(ctx, "tenant", "list")
	}
	return tenants, err
}
