package migration

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedSources(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	p, err := newProvider(db)
	require.NoError(t, err)

	sources := p.ListSources()
	require.Len(t, sources, 3)

	got := make([]Migration, 0, len(sources))
	for _, s := range sources {
		got = append(got, toMigration(s))
	}
	assert.Equal(t, []int64{1, 2, 3}, []int64{got[0].Version, got[1].Version, got[2].Version})
	assert.Equal(t, "00001_create_users.sql", got[0].Name)
	assert.Equal(t, "00002_create_sessions.sql", got[1].Name)
	assert.Equal(t, "00003_create_user_activation_tokens.sql", got[2].Name)
}

func TestListPending_ClosesConnectionOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	opened := 0
	m := NewMigrator(func(context.Context) (*sql.DB, error) {
		opened++
		return db, nil
	}, nil)

	_, err = m.ListPending(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, opened)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunPending_ClosesConnectionOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	m := NewMigrator(func(context.Context) (*sql.DB, error) { return db, nil }, nil)

	_, err = m.RunPending(context.Background())
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrator_OpenFailure(t *testing.T) {
	boom := errors.New("connection refused")
	m := NewMigrator(func(context.Context) (*sql.DB, error) { return nil, boom }, nil)

	_, err := m.ListPending(context.Background())
	assert.ErrorIs(t, err, boom)

	_, err = m.RunPending(context.Background())
	assert.ErrorIs(t, err, boom)
}
