package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vbruno96/tabnews-clone/internal/session/entity"
)

var ErrNotFound = errors.New("session not found")

const sessionColumns = `id, token, user_id, expires_at, created_at, updated_at`

// SessionRepo provides data access for the sessions table.
type SessionRepo struct {
	db *sqlx.DB
}

func NewSessionRepo(db *sqlx.DB) *SessionRepo { return &SessionRepo{db: db} }

func (r *SessionRepo) Create(ctx context.Context, token string, userID uuid.UUID, expiresAt time.Time) (*entity.Session, error) {
	q := `INSERT INTO sessions (token, user_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING ` + sessionColumns
	return r.getOne(ctx, q, token, userID, expiresAt)
}

// FindValidByToken returns the session only while expires_at is in the future.
func (r *SessionRepo) FindValidByToken(ctx context.Context, token string) (*entity.Session, error) {
	q := `SELECT ` + sessionColumns + `
		FROM sessions
		WHERE token = $1 AND expires_at > NOW()
		LIMIT 1`
	return r.getOne(ctx, q, token)
}

// Renew moves expires_at. The token column is never written.
func (r *SessionRepo) Renew(ctx context.Context, id uuid.UUID, expiresAt time.Time) (*entity.Session, error) {
	q := `UPDATE sessions
		SET expires_at = $2, updated_at = timezone('utc', now())
		WHERE id = $1
		RETURNING ` + sessionColumns
	return r.getOne(ctx, q, id, expiresAt)
}

func (r *SessionRepo) ExpireByID(ctx context.Context, id uuid.UUID) (*entity.Session, error) {
	q := `UPDATE sessions
		SET expires_at = timezone('utc', now()), updated_at = timezone('utc', now())
		WHERE id = $1
		RETURNING ` + sessionColumns
	return r.getOne(ctx, q, id)
}

func (r *SessionRepo) getOne(ctx context.Context, q string, args ...any) (*entity.Session, error) {
	var s entity.Session
	if err := r.db.GetContext(ctx, &s, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &s, nil
}
