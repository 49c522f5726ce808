package reviewevents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/yanplatform/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	at := time.Now()
	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+review_events.+RETURNING\s+id`).
		WithArgs("app-1", "admin-1", models.StatusUnderReview, models.StatusApproved, "ok", at).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("ev-1"))

	repo := NewPostgresRepository(db)
	got, err := repo.Create(context.Background(), &models.ReviewEvent{
		ApplicationID: "app-1",
		ActorID:       "admin-1",
		FromStatus:    models.StatusUnderReview,
		ToStatus:      models.StatusApproved,
		Notes:         "ok",
		CreatedAt:     at,
	})
	require.NoError(t, err)
	assert.Equal(t, "ev-1", got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+review_events`).WillReturnError(errors.New("boom"))

	_, err = NewPostgresRepository(db).Create(context.Background(), &models.ReviewEvent{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: boom")
}

func TestListByApplication(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	cols := []string{"id", "application_id", "actor_id", "from_status", "to_status", "notes", "created_at"}
	mock.ExpectQuery(`(?s)SELECT.+FROM\s+review_events\s+WHERE\s+application_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at`).
		WithArgs("app-1").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("ev-1", "app-1", "admin-1", "submitted", "screening", "", now).
			AddRow("ev-2", "app-1", "admin-1", "screening", "under_review", "next", now.Add(time.Minute)))

	got, err := NewPostgresRepository(db).ListByApplication(context.Background(), "app-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.StatusScreening, got[0].ToStatus)
	assert.Equal(t, models.StatusUnderReview, got[1].ToStatus)
	assert.Equal(t, "next", got[1].Notes)
}

func TestListByApplication_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+review_events`).WillReturnError(errors.New("boom"))

	_, err = NewPostgresRepository(db).ListByApplication(context.Background(), "app-1")
	assert.ErrorContains(t, err, "db error: boom")
}
