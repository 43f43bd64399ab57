package repo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/vbruno96/tabnews-clone/internal/status/entity"
)

// Repo reads server facts from PostgreSQL.
type Repo struct {
	db *sqlx.DB
}

func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

// Database collects version, max_connections and the number of backends
// connected to databaseName.
func (r *Repo) Database(ctx context.Context, databaseName string) (entity.Database, error) {
	var out entity.Database

	if err := r.db.GetContext(ctx, &out.Version, "SHOW server_version"); err != nil {
		return out, fmt.Errorf("db error: server_version: %w", err)
	}

	var maxConns string
	if err := r.db.GetContext(ctx, &maxConns, "SHOW max_connections"); err != nil {
		return out, fmt.Errorf("db error: max_connections: %w", err)
	}
	n, err := strconv.Atoi(maxConns)
	if err != nil {
		return out, fmt.Errorf("parse max_connections %q: %w", maxConns, err)
	}
	out.MaxConnections = n

	q := `SELECT count(*)::int AS opened_connections FROM pg_stat_activity WHERE datname = $1`
	if err := r.db.GetContext(ctx, &out.OpenedConnections, q, databaseName); err != nil {
		return out, fmt.Errorf("db error: pg_stat_activity: %w", err)
	}
	return out, nil
}
