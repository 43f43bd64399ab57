package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vbruno96/tabnews-clone/internal/activation/entity"
)

var ErrNotFound = errors.New("activation token not found")

const tokenColumns = `id, user_id, expires_at, used_at, created_at, updated_at`

// TokenRepo provides data access for user_activation_tokens.
type TokenRepo struct {
	db *sqlx.DB
}

func NewTokenRepo(db *sqlx.DB) *TokenRepo { return &TokenRepo{db: db} }

func (r *TokenRepo) Create(ctx context.Context, userID uuid.UUID, expiresAt time.Time) (*entity.Token, error) {
	q := `INSERT INTO user_activation_tokens (user_id, expires_at)
		VALUES ($1, $2)
		RETURNING ` + tokenColumns
	return r.getOne(ctx, q, userID, expiresAt)
}

// FindValidByID returns the token only while unused and unexpired.
func (r *TokenRepo) FindValidByID(ctx context.Context, id uuid.UUID) (*entity.Token, error) {
	q := `SELECT ` + tokenColumns + `
		FROM user_activation_tokens
		WHERE id = $1 AND expires_at > NOW() AND used_at IS NULL
		LIMIT 1`
	return r.getOne(ctx, q, id)
}

// MarkUsed consumes the token in a single conditional statement, so only
// one caller can ever see a row back.
func (r *TokenRepo) MarkUsed(ctx context.Context, id uuid.UUID) (*entity.Token, error) {
	q := `UPDATE user_activation_tokens
		SET used_at = timezone('utc', now()), updated_at = timezone('utc', now())
		WHERE id = $1 AND expires_at > NOW() AND used_at IS NULL
		RETURNING ` + tokenColumns
	return r.getOne(ctx, q, id)
}

// FindLatestByUserID returns the most recent token issued to userID.
func (r *TokenRepo) FindLatestByUserID(ctx context.Context, userID uuid.UUID) (*entity.Token, error) {
	q := `SELECT ` + tokenColumns + `
		FROM user_activation_tokens
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1`
	return r.getOne(ctx, q, userID)
}

func (r *TokenRepo) getOne(ctx context.Context, q string, args ...any) (*entity.Token, error) {
	var t entity.Token
	if err := r.db.GetContext(ctx, &t, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &t, nil
}
