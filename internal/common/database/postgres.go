// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"realty-crm/internal/common/config"
	apperrors "realty-crm/internal/common/errors"

	_ "github.com/lib/pq"
)

// PostgresClient wraps the connection pool to the hosted Postgres backend.
// The schema belongs to the backend; this service only reads rows.
type PostgresClient struct {
	DB *sql.DB
}

func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// ConnectPostgres opens the pool and pings it. A pool that fails its ping is
// closed before returning.
func ConnectPostgres(ctx context.Context, cfg config.PostgresConfig) (*PostgresClient, error) {
	return connect(ctx, func() (*PostgresClient, error) { return NewPostgres(cfg) })
}

func connect(ctx context.Context, open func() (*PostgresClient, error)) (*PostgresClient, error) {
	pg, err := open()
	if err != nil {
		return nil, apperrors.NewDatabaseConnectionFailedError(err)
	}
	if err := pg.Ping(ctx); err != nil {
		_ = pg.Close()
		return nil, apperrors.NewDatabaseConnectionFailedError(err)
	}
	return pg, nil
}
