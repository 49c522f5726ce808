// Package progress stores per-user resource completion.
package progress

import (
	"context"
	"time"

	"github.com/dmitrijs2005/yanplatform/internal/server/models"
)

type Repository interface {
	// MarkCompleted creates or updates the (userID, resourceID) row in one
	// statement; concurrent calls for the same pair never duplicate it.
	MarkCompleted(ctx context.Context, userID, resourceID string, at time.Time) (*models.Progress, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Progress, error)
}
