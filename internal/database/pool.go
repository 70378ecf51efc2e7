// Package database builds the process-wide PostgreSQL pool from
// configuration. The pool is created once in main and handed to every
// component that needs storage.
package database

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"tenant-registry/backend/internal/config"
)

const connectTimeout = 10 * time.Second

// ConnString renders the libpq URL for the configured database.
func ConnString(cfg *config.Config) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   cfg.DB.Host + ":" + strconv.Itoa(cfg.DB.Port),
		Path:   "/" + cfg.DB.Name,
	}
	if cfg.DB.Password != "" {
		u.User = url.UserPassword(cfg.DB.User, cfg.DB.Password)
	} else if cfg.DB.User != "" {
		u.User = url.User(cfg.DB.User)
	}
	q := url.Values{}
	if cfg.DB.SSLMode != "" {
		q.Set("sslmode", cfg.DB.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// NewPool creates a connection pool and pings the server before returning it.
func NewPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(ConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	if cfg.DB.MaxConns > 0 {
		poolConfig.MaxConns = cfg.DB.MaxConns
	}
	if cfg.DB.MinConns > 0 {
		poolConfig.MinConns = cfg.DB.MinConns
	}
	poolConfig.ConnConfig.ConnectTimeout = connectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
