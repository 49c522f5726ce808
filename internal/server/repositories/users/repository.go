package users

import (
	"context"

	"github.com/dmitrijs2005/yanplatform/internal/server/models"
)

// Repository stores credential records. Emails are unique; implementations
// return common.ErrorConflict on a duplicate and common.ErrorNotFound on a
// missing record.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
