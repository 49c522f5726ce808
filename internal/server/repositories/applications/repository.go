package applications

import (
	"context"

	"github.com/dmitrijs2005/yanplatform/internal/server/models"
)

// Repository stores applications.
//
// UpdateReview is a compare-and-swap: it writes r only while the stored
// status still equals expected and returns common.ErrorNotFound when no row
// matched (absent, or status moved on).
type Repository interface {
	Create(ctx context.Context, app *models.Application) (*models.Application, error)
	GetByID(ctx context.Context, id string) (*models.Application, error)
	List(ctx context.Context) ([]*models.Application, error)
	UpdateReview(ctx context.Context, id string, expected models.Status, r models.Review) (*models.Application, error)
}
