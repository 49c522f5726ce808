// Package review holds the application review workflow: which status may
// follow which.
//
//	submitted -> screening -> under_review -> approved | rejected
//	approved | rejected -> appealed -> under_review
package review

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/yanplatform/internal/common"
	"github.com/dmitrijs2005/yanplatform/internal/server/models"
)

var transitions = map[models.Status][]models.Status{
	models.StatusSubmitted:   {models.StatusScreening},
	models.StatusScreening:   {models.StatusUnderReview},
	models.StatusUnderReview: {models.StatusApproved, models.StatusRejected},
	models.StatusApproved:    {models.StatusAppealed},
	models.StatusRejected:    {models.StatusAppealed},
	models.StatusAppealed:    {models.StatusUnderReview},
}

// CanTransition reports whether to is reachable from from in one step.
func CanTransition(from, to models.Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Next lists the statuses reachable from s.
func Next(s models.Status) []models.Status {
	out := make([]models.Status, len(transitions[s]))
	copy(out, transitions[s])
	return out
}

// Validate returns nil when from -> to is legal, a validation error for
// unknown statuses and common.ErrIllegalTransition otherwise.
func Validate(from, to models.Status) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", common.ErrorValidation, to)
	}
	if !from.Valid() {
		return fmt.Errorf("%w: unknown current status %q", common.ErrorValidation, from)
	}
	if !CanTransition(from, to) {
		allowed := make([]string, 0, len(transitions[from]))
		for _, next := range Next(from) {
			allowed = append(allowed, string(next))
		}
		return fmt.Errorf("%w: %s -> %s, allowed: %s", common.ErrIllegalTransition, from, to, strings.Join(allowed, ", "))
	}
	return nil
}
