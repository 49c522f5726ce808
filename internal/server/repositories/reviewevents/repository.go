// Package reviewevents stores the append-only review history of applications.
package reviewevents

import (
	"context"

	"github.com/dmitrijs2005/yanplatform/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, e *models.ReviewEvent) (*models.ReviewEvent, error)
	// ListByApplication returns events oldest first.
	ListByApplication(ctx context.Context, applicationID string) ([]*models.ReviewEvent, error)
}
