package progress

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/yanplatform/internal/dbx"
	"github.com/dmitrijs2005/yanplatform/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) MarkCompleted(ctx context.Context, userID, resourceID string, at time.Time) (*models.Progress, error) {
	query := `
		INSERT INTO progress (user_id, resource_id, completed, completed_at, started_at)
		VALUES ($1, $2, true, $3, $3)
		ON CONFLICT (user_id, resource_id)
		DO UPDATE SET completed = true, completed_at = EXCLUDED.completed_at
		RETURNING user_id, resource_id, completed, completed_at, started_at
	`
	p, err := scanProgress(r.db.QueryRowContext(ctx, query, userID, resourceID, at))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Progress, error) {
	query := `
		SELECT user_id, resource_id, completed, completed_at, started_at
		FROM progress
		WHERE user_id = $1
		ORDER BY started_at
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Progress, 0)
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func scanProgress(s interface{ Scan(...any) error }) (*models.Progress, error) {
	var (
		p           models.Progress
		completedAt sql.NullTime
	)
	if err := s.Scan(&p.UserID, &p.ResourceID, &p.Completed, &completedAt, &p.StartedAt); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		p.CompletedAt = &completedAt.Time
	}
	return &p, nil
}
