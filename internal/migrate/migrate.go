// Package migrate manages the versioned schema of the users and tenants
// tables. Steps are embedded SQL files forming a single chain from base to
// head; each step can be applied or reverted only when the database sits at
// the step's predecessor (or the step itself, for revert).
package migrate

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"tenant-registry/backend/internal/logging"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Embedded returns the chain shipped with the binary.
func Embedded() (*Chain, error) {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// DB is the subset of *pgxpool.Pool the migrator needs.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Migrator applies and reverts steps of a Chain against a database.
type Migrator struct {
	db     DB
	chain  *Chain
	logger *logging.Logger
}

// New creates a Migrator.
func New(db DB, chain *Chain, logger *logging.Logger) *Migrator {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Migrator{db: db, chain: chain, logger: logger.With("component", "migrate")}
}

// History returns the chain oldest first.
func (m *Migrator) History() []*Step {
	return m.chain.Steps()
}

// Current returns the version recorded in the database, or Base when nothing
// has been applied.
func (m *Migrator) Current(ctx context.Context) (string, error) {
	var version string
	err := m.db.QueryRow(ctx, `SELECT version_num FROM schema_version`).Scan(&version)
	switch {
	case err == nil:
		return version, nil
	case errors.Is(err, pgx.ErrNoRows), isUndefinedTable(err):
		return Base, nil
	default:
		return "", fmt.Errorf("failed to read schema version: %w", err)
	}
}

// Apply runs step's upgrade. The database must be at step.Revises; otherwise
// ErrVersionMismatch is returned and nothing changes. The upgrade SQL and the
// version bump commit together or not at all.
func (m *Migrator) Apply(ctx context.Context, step *Step) error {
	return m.inVersionTx(ctx, func(tx pgx.Tx, current string) error {
		if current != step.Revises {
			return fmt.Errorf("%w: %s revises %s but database is at %s", ErrVersionMismatch, step, step.Revises, current)
		}

		m.logger.Info("Applying migration", "version", step.Version, "name", step.Name)
		if _, err := tx.Exec(ctx, step.Up); err != nil {
			return fmt.Errorf("failed to execute upgrade %s: %w", step, err)
		}
		return setVersion(ctx, tx, step.Version)
	})
}

// Revert runs step's downgrade. The database must be at step.Version.
func (m *Migrator) Revert(ctx context.Context, step *Step) error {
	return m.inVersionTx(ctx, func(tx pgx.Tx, current string) error {
		if current != step.Version {
			return fmt.Errorf("%w: cannot revert %s while database is at %s", ErrVersionMismatch, step, current)
		}

		m.logger.Info("Reverting migration", "version", step.Version, "name", step.Name)
		if _, err := tx.Exec(ctx, step.Down); err != nil {
			return fmt.Errorf("failed to execute downgrade %s: %w", step, err)
		}
		return setVersion(ctx, tx, step.Revises)
	})
}

// Upgrade applies every step after the current version up to and including
// target (Head or a version). It returns the number of steps applied.
func (m *Migrator) Upgrade(ctx context.Context, target string) (int, error) {
	from, to, err := m.span(ctx, target)
	if err != nil {
		return 0, err
	}
	if to < from {
		return 0, fmt.Errorf("target %s is older than the current version; use downgrade", target)
	}

	applied := 0
	for _, step := range m.chain.steps[from+1 : to+1] {
		if err := m.Apply(ctx, step); err != nil {
			return applied, err
		}
		applied++
	}

	if applied == 0 {
		m.logger.Debug("Schema already at target", "target", target)
	} else {
		m.logger.Info("Migrations applied", "count", applied, "version", m.chain.steps[to].Version)
	}
	return applied, nil
}

// Downgrade reverts steps newest first until the database is at target (Base
// or a version). It returns the number of steps reverted.
func (m *Migrator) Downgrade(ctx context.Context, target string) (int, error) {
	if target == Head {
		return 0, fmt.Errorf("%w: cannot downgrade to %s", ErrUnknownVersion, Head)
	}
	from, to, err := m.span(ctx, target)
	if err != nil {
		return 0, err
	}
	if to > from {
		return 0, fmt.Errorf("target %s is newer than the current version; use upgrade", target)
	}

	reverted := 0
	for i := from; i > to; i-- {
		if err := m.Revert(ctx, m.chain.steps[i]); err != nil {
			return reverted, err
		}
		reverted++
	}

	if reverted > 0 {
		m.logger.Info("Migrations reverted", "count", reverted, "version", target)
	}
	return reverted, nil
}

func (m *Migrator) span(ctx context.Context, target string) (from, to int, err error) {
	current, err := m.Current(ctx)
	if err != nil {
		return 0, 0, err
	}
	from, err = m.chain.position(current)
	if err != nil {
		return 0, 0, fmt.Errorf("database is at %s: %w", current, err)
	}
	to, err = m.chain.position(target)
	if err != nil {
		return 0, 0, err
	}
	return from, to, nil
}

// inVersionTx runs fn in a transaction holding an exclusive lock on the
// version table, so concurrent migrators serialize on it.
func (m *Migrator) inVersionTx(ctx context.Context, fn func(tx pgx.Tx, current string) error) error {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version_num TEXT PRIMARY KEY)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}
	if _, err := tx.Exec(ctx, `LOCK TABLE schema_version IN EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("failed to lock schema_version: %w", err)
	}

	current := Base
	err = tx.QueryRow(ctx, `SELECT version_num FROM schema_version`).Scan(&current)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if err := fn(tx, current); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}

func setVersion(ctx context.Context, tx pgx.Tx, version string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM schema_version`); err != nil {
		return fmt.Errorf("failed to clear schema version: %w", err)
	}
	if version == Base {
		return nil
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_version (version_num) VALUES ($1)`, version); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable
}
