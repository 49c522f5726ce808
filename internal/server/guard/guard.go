// Package guard authenticates bearer tokens and authorizes roles. Both gates
// are plain functions over explicit inputs so any transport can compose them.
package guard

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/yanplatform/internal/common"
	"github.com/dmitrijs2005/yanplatform/internal/server/auth"
	"github.com/dmitrijs2005/yanplatform/internal/server/models"
)

// Identity is an authenticated principal. Role is the user's current role
// as stored, not the one captured in the token.
type Identity struct {
	UserID string
	Role   models.Role
	User   *models.User
}

// TokenVerifier is satisfied by *auth.TokenService.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// UserFinder resolves a user by id.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type Guard struct {
	tokens TokenVerifier
	users  UserFinder
}

func New(tokens TokenVerifier, users UserFinder) *Guard {
	return &Guard{tokens: tokens, users: users}
}

// Authenticate parses an Authorization header value of the form
// "Bearer <token>". Every failure is reported as common.ErrUnauthenticated,
// wrapping the cause.
func (g *Guard) Authenticate(ctx context.Context, header string) (*Identity, error) {
	token, ok := bearerToken(header)
	if !ok {
		return nil, fmt.Errorf("%w: missing bearer token", common.ErrUnauthenticated)
	}

	claims, err := g.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrUnauthenticated, err)
	}

	user, err := g.users.FindByID(ctx, claims.UserID())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrUnauthenticated, err)
	}

	return &Identity{UserID: user.ID, Role: user.Role, User: user.Public()}, nil
}

// Authorize returns nil when allowed is empty or contains id.Role, and
// common.ErrForbidden otherwise.
func Authorize(id *Identity, allowed ...models.Role) error {
	if id == nil {
		return common.ErrUnauthenticated
	}
	if len(allowed) == 0 {
		return nil
	}
	for _, r := range allowed {
		if id.Role == r {
			return nil
		}
	}
	return fmt.Errorf("%w: role %s", common.ErrForbidden, id.Role)
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

type ctxKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored by WithIdentity, if any.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(*Identity)
	return id, ok && id != nil
}
