// Package applications provides the PostgreSQL-backed application repository.
package applications

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/yanplatform/internal/common"
	"github.com/dmitrijs2005/yanplatform/internal/dbx"
	"github.com/dmitrijs2005/yanplatform/internal/server/models"
)

// selectFrom reads applications from the named relation together with the
// applicant and reviewer profiles.
const selectFrom = `
	SELECT a.id, a.applicant_id, a.status, a.submission_data, a.documents,
	       a.reviewer_notes, a.reviewed_by, a.reviewed_at, a.submitted_at,
	       ap.name, ap.email, ap.organization, rv.name, rv.email
	FROM %s a
	LEFT JOIN users ap ON ap.id = a.applicant_id
	LEFT JOIN users rv ON rv.id = a.reviewed_by
`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, app *models.Application) (*models.Application, error) {
	docs := app.Documents
	if docs == nil {
		docs = []models.Document{}
	}
	docsJSON, err := json.Marshal(docs)
	if err != nil {
		return nil, fmt.Errorf("encode documents: %w", err)
	}

	query := `
		INSERT INTO applications (applicant_id, status, submission_data, documents)
		VALUES ($1, $2, $3, $4)
		RETURNING id, submitted_at
	`
	err = r.db.QueryRowContext(ctx, query,
		app.ApplicantID, app.Status, []byte(app.SubmissionData), docsJSON).Scan(&app.ID, &app.SubmittedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	app.Documents = docs
	return app, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Application, error) {
	query := fmt.Sprintf(selectFrom, "applications") + `WHERE a.id = $1`

	app, err := scanApplication(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.IsInvalidTextRepresentation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return app, nil
}

// List returns every application, newest submission first.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.Application, error) {
	query := fmt.Sprintf(selectFrom, "applications") + `ORDER BY a.submitted_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) UpdateReview(ctx context.Context, id string, expected models.Status, rv models.Review) (*models.Application, error) {
	query := `
		WITH updated AS (
			UPDATE applications
			SET status = $3, reviewer_notes = $4, reviewed_by = $5, reviewed_at = $6
			WHERE id = $1 AND status = $2
			RETURNING *
		)` + fmt.Sprintf(selectFrom, "updated")

	app, err := scanApplication(r.db.QueryRowContext(ctx, query, id, expected, rv.Status, rv.Notes, rv.Actor, rv.At))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.IsInvalidTextRepresentation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return app, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanApplication(s scanner) (*models.Application, error) {
	var (
		app        models.Application
		submission []byte
		documents  []byte
		notes      sql.NullString
		reviewedBy sql.NullString
		reviewedAt sql.NullTime

		applicantName, applicantEmail, applicantOrg sql.NullString
		reviewerName, reviewerEmail                 sql.NullString
	)

	if err := s.Scan(&app.ID, &app.ApplicantID, &app.Status, &submission, &documents,
		&notes, &reviewedBy, &reviewedAt, &app.SubmittedAt,
		&applicantName, &applicantEmail, &applicantOrg, &reviewerName, &reviewerEmail); err != nil {
		return nil, err
	}

	app.SubmissionData = models.SubmissionData(submission)
	app.Documents = []models.Document{}
	if len(documents) > 0 {
		if err := json.Unmarshal(documents, &app.Documents); err != nil {
			return nil, fmt.Errorf("decode documents: %w", err)
		}
	}
	if reviewedBy.Valid {
		app.ReviewedBy = &reviewedBy.String
		app.ReviewerNotes = &notes.String
		app.ReviewedAt = &reviewedAt.Time
	}
	if applicantEmail.Valid {
		app.ApplicantProfile = &models.Party{
			ID:           app.ApplicantID,
			Name:         applicantName.String,
			Email:        applicantEmail.String,
			Organization: applicantOrg.String,
		}
	}
	if reviewedBy.Valid && reviewerEmail.Valid {
		app.Reviewer = &models.Party{ID: reviewedBy.String, Name: reviewerName.String, Email: reviewerEmail.String}
	}

	return &app, nil
}
