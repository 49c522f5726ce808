package progress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cols = []string{"user_id", "resource_id", "completed", "completed_at", "started_at"}

func TestMarkCompleted_Upserts(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	at := time.Now()
	started := at.Add(-time.Hour)
	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+progress.+ON\s+CONFLICT\s+\(user_id,\s*resource_id\)\s+DO\s+UPDATE`).
		WithArgs("u-1", "r-1", at).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("u-1", "r-1", true, at, started))

	got, err := NewPostgresRepository(db).MarkCompleted(context.Background(), "u-1", "r-1", at)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(at))
	assert.True(t, got.StartedAt.Equal(started))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkCompleted_DBError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+progress`).WillReturnError(errors.New("boom"))

	_, err = NewPostgresRepository(db).MarkCompleted(context.Background(), "u-1", "r-1", time.Now())
	assert.ErrorContains(t, err, "db error: boom")
}

func TestListByUser(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)SELECT.+FROM\s+progress\s+WHERE\s+user_id\s*=\s*\$1`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("u-1", "r-1", true, now, now).
			AddRow("u-1", "r-2", false, nil, now))

	got, err := NewPostgresRepository(db).ListByUser(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.NotNil(t, got[0].CompletedAt)
	assert.Nil(t, got[1].CompletedAt)
	assert.False(t, got[1].Completed)
}
