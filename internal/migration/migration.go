// Package migration lists and applies the embedded schema migrations.
package migration

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed sql/*.sql
var embedded embed.FS

// Migration describes one migration file.
type Migration struct {
	Version int64  `json:"version"`
	Name    string `json:"name"`
	Path    string `json:"path"`
}

// Opener returns a dedicated connection that the migrator closes when done.
type Opener func(ctx context.Context) (*sql.DB, error)

type Migrator struct {
	open   Opener
	logger *zap.SugaredLogger
}

func NewMigrator(open Opener, logger *zap.SugaredLogger) *Migrator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Migrator{open: open, logger: logger}
}

// Files exposes the embedded migrations rooted at their directory.
func Files() fs.FS {
	sub, err := fs.Sub(embedded, "sql")
	if err != nil {
		panic(err)
	}
	return sub
}

func newProvider(db *sql.DB) (*goose.Provider, error) {
	return goose.NewProvider(goose.DialectPostgres, db, Files())
}

func toMigration(src *goose.Source) Migration {
	return Migration{Version: src.Version, Name: path.Base(src.Path), Path: src.Path}
}

// withProvider opens a connection, runs fn and closes the connection on every path.
func (m *Migrator) withProvider(ctx context.Context, fn func(*goose.Provider) error) error {
	db, err := m.open(ctx)
	if err != nil {
		return fmt.Errorf("migration connection: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			m.logger.Warnw("close migration connection", "error", cerr)
		}
	}()

	p, err := newProvider(db)
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}
	return fn(p)
}

// ListPending returns the migrations not yet applied, in version order.
func (m *Migrator) ListPending(ctx context.Context) ([]Migration, error) {
	pending := []Migration{}
	err := m.withProvider(ctx, func(p *goose.Provider) error {
		statuses, err := p.Status(ctx)
		if err != nil {
			return fmt.Errorf("migration status: %w", err)
		}
		for _, s := range statuses {
			if s.State == goose.StatePending {
				pending = append(pending, toMigration(s.Source))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pending, nil
}

// RunPending applies every pending migration and returns those applied.
func (m *Migrator) RunPending(ctx context.Context) ([]Migration, error) {
	applied := []Migration{}
	err := m.withProvider(ctx, func(p *goose.Provider) error {
		results, err := p.Up(ctx)
		if err != nil {
			return fmt.Errorf("migration up: %w", err)
		}
		for _, r := range results {
			applied = append(applied, toMigration(r.Source))
			m.logger.Infow("migration applied", "version", r.Source.Version, "duration", r.Duration)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return applied, nil
}
