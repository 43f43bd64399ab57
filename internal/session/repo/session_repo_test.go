package repo

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "token", "user_id", "expires_at", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*SessionRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSessionRepo(sqlx.NewDb(db, "postgres")), mock
}

func sessionRows(id, userID uuid.UUID, token string, expiresAt time.Time) *sqlmock.Rows {
	now := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(columns).AddRow(id.String(), token, userID.String(), expiresAt, now, now)
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	id, userID := uuid.New(), uuid.New()
	expires := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+sessions\s*\(token,\s*user_id,\s*expires_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)`).
		WithArgs("tok", userID, expires).
		WillReturnRows(sessionRows(id, userID, "tok", expires))

	s, err := repo.Create(context.Background(), "tok", userID, expires)
	require.NoError(t, err)
	assert.Equal(t, id, s.ID)
	assert.Equal(t, userID, s.UserID)
	assert.Equal(t, "tok", s.Token)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindValidByToken_FiltersExpired(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	id, userID := uuid.New(), uuid.New()

	mock.ExpectQuery(`(?s)FROM\s+sessions\s+WHERE\s+token\s*=\s*\$1\s+AND\s+expires_at\s*>\s*NOW\(\)\s+LIMIT\s+1`).
		WithArgs("tok").
		WillReturnRows(sessionRows(id, userID, "tok", time.Now().Add(time.Hour)))

	s, err := repo.FindValidByToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, id, s.ID)
}

func TestFindValidByToken_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`FROM\s+sessions`).WillReturnError(sql.ErrNoRows)

	_, err := repo.FindValidByToken(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRenew_DoesNotTouchToken(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	id, userID := uuid.New(), uuid.New()
	expires := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)^UPDATE\s+sessions\s+SET\s+expires_at\s*=\s*\$2,\s*updated_at\s*=\s*timezone\('utc',\s*now\(\)\)\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs(id, expires).
		WillReturnRows(sessionRows(id, userID, "tok", expires))

	s, err := repo.Renew(context.Background(), id, expires)
	require.NoError(t, err)
	assert.Equal(t, expires, s.ExpiresAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireByID(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	id, userID := uuid.New(), uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`(?s)^UPDATE\s+sessions\s+SET\s+expires_at\s*=\s*timezone\('utc',\s*now\(\)\)`).
		WithArgs(id).
		WillReturnRows(sessionRows(id, userID, "tok", now))

	s, err := repo.ExpireByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, now, s.ExpiresAt)
}

func TestExpireByID_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`UPDATE\s+sessions`).WillReturnError(errors.New("conn reset"))

	_, err := repo.ExpireByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "db error")
}
