package services

import (
	"context"
	"errors"

	"tenant-registry/backend/internal/repository"
	"tenant-registry/backend/internal/telemetry"
	"tenant-registry/backend/pkg/models"
)

// UserService is a service for managing users.
type UserService struct {
	store   repository.UserStore
	hasher  PasswordHasher
	metrics *telemetry.Metrics
}

// NewUserService creates a new UserService.
func NewUserService(store repository.UserStore, hasher PasswordHasher, metrics *telemetry.Metrics) *UserService {
	return &UserService{
		store:   store,
		hasher:  hasher,
		metrics: metrics,
	}
}

// Create stores a new user. The password is hashed before it reaches
// storage.
func (s *UserService) Create(ctx context.Context, in models.UserCreate) (*models.User, error) {
	user := in.User()

	hash, err := s.hasher.Hash(user.Password)
	if err != nil {
		return nil, err
	}
	user.Password = hash

	if err := s.store.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, repository.ErrEmailTaken) {
			s.metrics.RecordStorageError(ctx, "user", "create")
		}
		return nil, err
	}

	s.metrics.RecordCreated(ctx, "user")
	return user, nil
}

// Get retrieves a user by id.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		s.metrics.RecordStorageError(ctx, "user", "get")
	}
	return user, err
}

// List returns all users.
func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		s.metrics.RecordStorageError(ctx, "user", "list")
	}
	return users, err
}
