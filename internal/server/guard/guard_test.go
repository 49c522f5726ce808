package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/yanplatform/internal/common"
	"github.com/dmitrijs2005/yanplatform/internal/server/auth"
	"github.com/dmitrijs2005/yanplatform/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapFinder map[string]*models.User

func (m mapFinder) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func setup(t *testing.T) (*Guard, *auth.TokenService, mapFinder) {
	t.Helper()
	tokens := auth.NewTokenService([]byte("secret"), time.Hour)
	users := mapFinder{
		"u-1": {ID: "u-1", Role: models.RoleMember, PasswordHash: "hash"},
	}
	return New(tokens, users), tokens, users
}

func TestAuthenticate_Success(t *testing.T) {
	g, tokens, _ := setup(t)
	tok, err := tokens.Issue(&models.User{ID: "u-1", Role: models.RoleMember})
	require.NoError(t, err)

	id, err := g.Authenticate(context.Background(), "Bearer "+tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", id.UserID)
	assert.Equal(t, models.RoleMember, id.Role)
	assert.Empty(t, id.User.PasswordHash)
}

func TestAuthenticate_CurrentRoleWinsOverClaim(t *testing.T) {
	g, tokens, users := setup(t)
	tok, err := tokens.Issue(&models.User{ID: "u-1", Role: models.RoleAdmin})
	require.NoError(t, err)

	id, err := g.Authenticate(context.Background(), "Bearer "+tok)
	require.NoError(t, err)
	assert.Equal(t, users["u-1"].Role, id.Role)
}

func TestAuthenticate_Failures(t *testing.T) {
	g, tokens, _ := setup(t)
	ghost, err := tokens.Issue(&models.User{ID: "ghost", Role: models.RoleAdmin})
	require.NoError(t, err)
	other := auth.NewTokenService([]byte("other"), time.Hour)
	forged, err := other.Issue(&models.User{ID: "u-1", Role: models.RoleAdmin})
	require.NoError(t, err)
	expired, err := auth.GenerateToken("u-1", models.RoleMember, []byte("secret"), time.Now().Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)

	cases := map[string]struct {
		header string
		cause  error
	}{
		"empty":        {"", nil},
		"no scheme":    {ghost, nil},
		"basic scheme": {"Basic abc", nil},
		"bearer only":  {"Bearer   ", nil},
		"garbage":      {"Bearer not.a.jwt", common.ErrInvalidToken},
		"wrong secret": {"Bearer " + forged, common.ErrInvalidToken},
		"expired":      {"Bearer " + expired, common.ErrTokenExpired},
		"unknown user": {"Bearer " + ghost, common.ErrorNotFound},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := g.Authenticate(context.Background(), tc.header)
			require.ErrorIs(t, err, common.ErrUnauthenticated)
			if tc.cause != nil {
				assert.True(t, errors.Is(err, tc.cause), "want cause %v, got %v", tc.cause, err)
			}
		})
	}
}

func TestAuthenticate_SchemeCaseInsensitive(t *testing.T) {
	g, tokens, _ := setup(t)
	tok, err := tokens.Issue(&models.User{ID: "u-1", Role: models.RoleMember})
	require.NoError(t, err)

	_, err = g.Authenticate(context.Background(), "bearer "+tok)
	assert.NoError(t, err)
}

func TestAuthorize(t *testing.T) {
	member := &Identity{UserID: "u", Role: models.RoleMember}

	assert.NoError(t, Authorize(member))
	assert.NoError(t, Authorize(member, models.RoleAdmin, models.RoleMember))
	assert.ErrorIs(t, Authorize(member, models.RoleAdmin), common.ErrForbidden)
	assert.ErrorIs(t, Authorize(nil, models.RoleAdmin), common.ErrUnauthenticated)
}

func TestIdentityContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	id := &Identity{UserID: "u"}
	got, ok := FromContext(WithIdentity(context.Background(), id))
	require.True(t, ok)
	assert.Same(t, id, got)
}
