// Package refreshtokens declares the server-side repository contract for
// managing refresh tokens in persistent storage.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/yanplatform/internal/server/models"
)

// Repository defines operations for issuing and redeeming refresh tokens.
type Repository interface {
	// Create stores a new refresh token for userID expiring at expiresAt.
	Create(ctx context.Context, userID string, token string, expiresAt time.Time) error

	// Consume deletes the token and returns its metadata. A token can be
	// consumed once; later calls return common.ErrorNotFound.
	Consume(ctx context.Context, token string) (*models.RefreshToken, error)
}
