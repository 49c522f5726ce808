package reviewevents

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/yanplatform/internal/dbx"
	"github.com/dmitrijs2005/yanplatform/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, e *models.ReviewEvent) (*models.ReviewEvent, error) {
	query := `
		INSERT INTO review_events (application_id, actor_id, from_status, to_status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	if err := r.db.QueryRowContext(ctx, query,
		e.ApplicationID, e.ActorID, e.FromStatus, e.ToStatus, e.Notes, e.CreatedAt).Scan(&e.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) ListByApplication(ctx context.Context, applicationID string) ([]*models.ReviewEvent, error) {
	query := `
		SELECT id, application_id, actor_id, from_status, to_status, notes, created_at
		FROM review_events
		WHERE application_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.ReviewEvent, 0)
	for rows.Next() {
		e := &models.ReviewEvent{}
		if err := rows.Scan(&e.ID, &e.ApplicationID, &e.ActorID, &e.FromStatus, &e.ToStatus, &e.Notes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
