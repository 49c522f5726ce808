package review

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/yanplatform/internal/common"
	"github.com/dmitrijs2005/yanplatform/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allStatuses = []models.Status{
	models.StatusSubmitted,
	models.StatusScreening,
	models.StatusUnderReview,
	models.StatusApproved,
	models.StatusRejected,
	models.StatusAppealed,
}

func TestValidate_Table(t *testing.T) {
	legal := map[[2]models.Status]bool{
		{models.StatusSubmitted, models.StatusScreening}:   true,
		{models.StatusScreening, models.StatusUnderReview}: true,
		{models.StatusUnderReview, models.StatusApproved}:  true,
		{models.StatusUnderReview, models.StatusRejected}:  true,
		{models.StatusApproved, models.StatusAppealed}:     true,
		{models.StatusRejected, models.StatusAppealed}:     true,
		{models.StatusAppealed, models.StatusUnderReview}:  true,
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			err := Validate(from, to)
			if legal[[2]models.Status{from, to}] {
				assert.NoError(t, err, "%s -> %s", from, to)
				assert.True(t, CanTransition(from, to))
				continue
			}
			require.Error(t, err, "%s -> %s must be illegal", from, to)
			assert.True(t, errors.Is(err, common.ErrIllegalTransition), "%s -> %s: %v", from, to, err)
			assert.True(t, errors.Is(err, common.ErrorValidation))
		}
	}
}

func TestValidate_SubmittedCannotJumpToApproved(t *testing.T) {
	err := Validate(models.StatusSubmitted, models.StatusApproved)
	assert.ErrorIs(t, err, common.ErrIllegalTransition)
}

func TestValidate_UnknownStatus(t *testing.T) {
	err := Validate(models.StatusSubmitted, "archived")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrorValidation)
	assert.NotErrorIs(t, err, common.ErrIllegalTransition)

	err = Validate("draft", models.StatusScreening)
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestNext_ReturnsCopy(t *testing.T) {
	n := Next(models.StatusUnderReview)
	require.Len(t, n, 2)
	n[0] = models.StatusSubmitted
	assert.Equal(t, models.StatusApproved, Next(models.StatusUnderReview)[0])
}

func TestValidate_MessageListsAllowed(t *testing.T) {
	err := Validate(models.StatusApproved, models.StatusScreening)
	require.ErrorIs(t, err, common.ErrIllegalTransition)
	assert.Contains(t, err.Error(), "approved -> screening, allowed: appealed")

	err = Validate(models.StatusUnderReview, models.StatusAppealed)
	assert.Contains(t, err.Error(), "allowed: approved, rejected")
	assert.Empty(t, Next("bogus"))
}
