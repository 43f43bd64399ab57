package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/vbruno96/tabnews-clone/internal/user/entity"
)

var (
	ErrNotFound          = errors.New("user not found")
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrDuplicateEmail    = errors.New("duplicate email")
)

const userColumns = `id, username, email, password, features, created_at, updated_at`

type userRow struct {
	ID        uuid.UUID      `db:"id"`
	Username  string         `db:"username"`
	Email     string         `db:"email"`
	Password  string         `db:"password"`
	Features  pq.StringArray `db:"features"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func (r userRow) toEntity() *entity.User {
	features := []string(r.Features)
	if features == nil {
		features = []string{}
	}
	return &entity.User{
		ID:        r.ID,
		Username:  r.Username,
		Email:     r.Email,
		Password:  r.Password,
		Features:  features,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// UserRepo provides data access for the users table using sqlx.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a user. Features come from the column default.
func (r *UserRepo) Create(ctx context.Context, username, email, passwordHash string) (*entity.User, error) {
	q := `INSERT INTO users (username, email, password)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns
	var row userRow
	if err := r.db.GetContext(ctx, &row, q, username, email, passwordHash); err != nil {
		return nil, mapWriteError(err)
	}
	return row.toEntity(), nil
}

// GetByUsername matches case-insensitively.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE LOWER(username) = LOWER($1) LIMIT 1`
	return r.getOne(ctx, q, username)
}

// GetByEmail matches case-insensitively.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1`
	return r.getOne(ctx, q, email)
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	return r.getOne(ctx, q, id)
}

// Update writes username, email and password of u and bumps updated_at.
func (r *UserRepo) Update(ctx context.Context, u *entity.User) (*entity.User, error) {
	q := `UPDATE users
		SET username = $2, email = $3, password = $4, updated_at = timezone('utc', now())
		WHERE id = $1
		RETURNING ` + userColumns
	var row userRow
	if err := r.db.GetContext(ctx, &row, q, u.ID, u.Username, u.Email, u.Password); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, mapWriteError(err)
	}
	return row.toEntity(), nil
}

// SetFeatures replaces the feature array of the user.
func (r *UserRepo) SetFeatures(ctx context.Context, id uuid.UUID, features []string) (*entity.User, error) {
	q := `UPDATE users
		SET features = $2, updated_at = timezone('utc', now())
		WHERE id = $1
		RETURNING ` + userColumns
	var row userRow
	if err := r.db.GetContext(ctx, &row, q, id, pq.StringArray(features)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return row.toEntity(), nil
}

func (r *UserRepo) getOne(ctx context.Context, q string, arg any) (*entity.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return row.toEntity(), nil
}

// mapWriteError turns unique violations on the case-insensitive indexes
// into duplicate sentinels.
func mapWriteError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		switch {
		case strings.Contains(pqErr.Constraint, "username"):
			return ErrDuplicateUsername
		case strings.Contains(pqErr.Constraint, "email"):
			return ErrDuplicateEmail
		}
	}
	return fmt.Errorf("db error: %w", err)
}
