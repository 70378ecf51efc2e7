package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tenant-registry/backend/internal/logging"
	"tenant-registry/backend/pkg/models"
)

const (
	userColumns   = `id, email, password, description, created_at, updated_at, field_1, field_2`
	tenantColumns = `id, name, description, created_at, updated_at`
)

// PostgresStore is a PostgreSQL implementation of Repository.
type PostgresStore struct {
	db     *pgxpool.Pool
	logger *logging.Logger
}

var _ Repository = (*PostgresStore)(nil)

// NewPostgresStore creates a new PostgresStore sharing the given pool.
func NewPostgresStore(db *pgxpool.Pool, logger *logging.Logger) *PostgresStore {
	if logger == nil {
		logger = logging.Nop()
	}
	return &PostgresStore{db: db, logger: logger}
}

// Ping checks that the database answers.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// CreateUser inserts a user and refreshes it with the stored row.
func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password, description, field_1, field_2)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns

	stored, err := insertReturning[models.User](ctx, s.db, query,
		user.Email,
		user.Password,
		user.Description,
		user.Field1,
		user.Field2,
	)
	if err != nil {
		err = mapPostgresError(err)
		if errors.Is(err, ErrEmailTaken) {
			return err
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	*user = *stored
	s.logger.Debug("Created user", "id", user.ID)
	return nil
}

// GetUser retrieves a user by id.
func (s *PostgresStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	rows, _ := s.db.Query(ctx, query, id)
	user, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[models.User])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", mapPostgresError(err))
	}
	return user, nil
}

// ListUsers returns all users ordered by id.
func (s *PostgresStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`

	rows, _ := s.db.Query(ctx, query)
	users, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[models.User])
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", mapPostgresError(err))
	}
	if users == nil {
		users = []*models.User{}
	}
	return users, nil
}

// CreateTenant inserts a tenant and refreshes it with the stored row.
func (s *PostgresStore) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	query := `
		INSERT INTO tenants (name, description)
		VALUES ($1, $2)
		RETURNING ` + tenantColumns

	stored, err := insertReturning[models.Tenant](ctx, s.db, query,
		tenant.Name,
		tenant.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to create tenant: %w", mapPostgresError(err))
	}

	*tenant = *stored
	s.logger.Debug("Created tenant", "id", tenant.ID, "name", tenant.Name)
	return nil
}

// GetTenant retrieves a tenant by id.
func (s *PostgresStore) GetTenant(ctx context.Context, id int64) (*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`

	rows, _ := s.db.Query(ctx, query, id)
	tenant, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[models.Tenant])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", mapPostgresError(err))
	}
	return tenant, nil
}

// ListTenants returns all tenants ordered by id.
func (s *PostgresStore) ListTenants(ctx context.Context) ([]*models.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants ORDER BY id`

	rows, _ := s.db.Query(ctx, query)
	tenants, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[models.Tenant])
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", mapPostgresError(err))
	}
	if tenants == nil {
		tenants = []*models.Tenant{}
	}
	return tenants, nil
}

// insertReturning runs an INSERT ... RETURNING in its own transaction and
// scans the returned row into T by column name. The transaction is always
// ended before returning: committed on success, rolled back otherwise.
func insertReturning[T any](ctx context.Context, db *pgxpool.Pool, query string, args ...any) (*T, error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	rows, _ := tx.Query(ctx, query, args...)
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[T])
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return row, nil
}
