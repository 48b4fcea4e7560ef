// Package database provides metadata store connectivity and repositories.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/jonesrussell/petition-pipeline/internal/config"
)

const (
	// defaultMaxOpenConns is the maximum number of open connections.
	defaultMaxOpenConns = 25
	// defaultMaxIdleConns is the maximum number of idle connections.
	defaultMaxIdleConns = 5
	// defaultConnMaxLifetime is the maximum connection lifetime.
	defaultConnMaxLifetime = 5 * time.Minute
	// pingTimeout bounds the startup connection check.
	pingTimeout = 5 * time.Second
)

// NewPostgresConnection creates a new PostgreSQL database connection.
// An unreachable store is fatal for the run; the error propagates to the
// driver untouched.
func NewPostgresConnection(cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if pingErr := db.PingContext(ctx); pingErr != nil {
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}

	return db, nil
}
