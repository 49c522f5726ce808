package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/yanplatform/internal/common"
	"github.com/dmitrijs2005/yanplatform/internal/dbx"
	"github.com/dmitrijs2005/yanplatform/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgress_MarkCompletedIsIdempotentPerPair(t *testing.T) {
	s := NewProgressService(dbx.NoTx{}, repomanager.NewMemoryRepositoryManager())
	ctx := context.Background()

	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return first }
	_, err := s.MarkCompleted(ctx, "u-1", "course-1")
	require.NoError(t, err)

	second := first.Add(time.Hour)
	s.now = func() time.Time { return second }
	p, err := s.MarkCompleted(ctx, "u-1", " course-1 ")
	require.NoError(t, err)
	assert.True(t, p.Completed)
	assert.True(t, p.CompletedAt.Equal(second))
	assert.True(t, p.StartedAt.Equal(first))

	list, err := s.ListForUser(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestProgress_RequiresResource(t *testing.T) {
	s := NewProgressService(dbx.NoTx{}, repomanager.NewMemoryRepositoryManager())
	_, err := s.MarkCompleted(context.Background(), "u-1", "  ")
	assert.ErrorIs(t, err, common.ErrorValidation)
}
