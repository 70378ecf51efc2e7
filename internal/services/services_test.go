package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tenant-registry/backend/internal/repository"
	"tenant-registry/backend/pkg/models"
)

// MockStore satisfies repository.UserStore and repository.TenantStore
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockStore) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockStore) GetTenant(ctx context.Context, id int64) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockStore) ListTenants(ctx context.Context) ([]*models.Tenant, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Tenant), args.Error(1)
}

func strPtr(s string) *string { return &s }

func TestUserService_CreateHashesPassword(t *testing.T) {
	store := new(MockStore)
	store.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "a@x.com" &&
			bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("p1")) == nil
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.User).ID = 1
	}).Return(nil)

	svc := NewUserService(store, NewBcryptHasher(bcrypt.MinCost), nil)

	user, err := svc.Create(context.Background(), models.UserCreate{
		Email:    strPtr("a@x.com"),
		Password: strPtr("p1"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "a@x.com", user.Email)
	assert.NotEqual(t, "p1", user.Password)
	store.AssertExpectations(t)
}

func TestUserService_CreateDuplicateEmail(t *testing.T) {
	store := new(MockStore)
	store.On("CreateUser", mock.Anything, mock.Anything).Return(repository.ErrEmailTaken)

	svc := NewUserService(store, NewBcryptHasher(bcrypt.MinCost), nil)

	_, err := svc.Create(context.Background(), models.UserCreate{
		Email:    strPtr("a@x.com"),
		Password: strPtr("p1"),
	})
	assert.ErrorIs(t, err, repository.ErrEmailTaken)
}

func TestUserService_CreatePasswordTooLong(t *testing.T) {
	store := new(MockStore)
	svc := NewUserService(store, NewBcryptHasher(bcrypt.MinCost), nil)

	_, err := svc.Create(context.Background(), models.UserCreate{
		Email:    strPtr("a@x.com"),
		Password: strPtr(strings.Repeat("x", 73)),
	})
	assert.ErrorIs(t, err, ErrPasswordTooLong)
	store.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestUserService_GetAndList(t *testing.T) {
	store := new(MockStore)
	want := &models.User{ID: 3, Email: "c@x.com"}
	store.On("GetUser", mock.Anything, int64(3)).Return(want, nil)
	store.On("GetUser", mock.Anything, int64(999)).Return(nil, repository.ErrUserNotFound)
	store.On("ListUsers", mock.Anything).Return([]*models.User{want}, nil)

	svc := NewUserService(store, NewBcryptHasher(0), nil)

	got, err := svc.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Same(t, want, got)

	_, err = svc.Get(context.Background(), 999)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	all, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestTenantService(t *testing.T) {
	store := new(MockStore)
	store.On("CreateTenant", mock.Anything, mock.MatchedBy(func(tn *models.Tenant) bool {
		return tn.Name == "Acme" && tn.Description != nil && *tn.Description == "desc"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Tenant).ID = 1
	}).Return(nil)
	store.On("GetTenant", mock.Anything, int64(1)).Return(&models.Tenant{ID: 1, Name: "Acme"}, nil)
	store.On("ListTenants", mock.Anything).Return(nil, errors.New("connection refused"))

	svc := NewTenantService(store, nil)

	tenant, err := svc.Create(context.Background(), models.TenantCreate{
		Name:        strPtr("Acme"),
		Description: strPtr("desc"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), tenant.ID)

	got, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)

	_, err = svc.List(context.Background())
	assert.EqualError(t, err, "connection refused")

	store.AssertExpectations(t)
}
