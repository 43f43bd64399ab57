package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const driverName = "postgres"

type Config struct {
	DSN      string
	MaxConns int
	Timeout  time.Duration
}

// Connect opens the shared pool and verifies connectivity with a ping.
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	db, err := open(ctx, cfg, cfg.MaxConns)
	if err != nil {
		return nil, err
	}
	db.SetConnMaxLifetime(30 * time.Minute)
	return sqlx.NewDb(db, driverName), nil
}

// NewConnection opens a dedicated single-connection handle. The caller owns
// it and must Close it.
func NewConnection(ctx context.Context, cfg Config) (*sql.DB, error) {
	return open(ctx, cfg, 1)
}

func open(ctx context.Context, cfg Config, maxConns int) (*sql.DB, error) {
	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
		db.SetMaxIdleConns(maxConns)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}
