package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/yanplatform/internal/common"
	"github.com/dmitrijs2005/yanplatform/internal/dbx"
	"github.com/dmitrijs2005/yanplatform/internal/logging"
	"github.com/dmitrijs2005/yanplatform/internal/server/metrics"
	"github.com/dmitrijs2005/yanplatform/internal/server/models"
	"github.com/dmitrijs2005/yanplatform/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/yanplatform/internal/server/review"
)

// ApplicationService runs the application review workflow.
type ApplicationService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	now         func() time.Time
	log         logging.Logger
	metrics     *metrics.Collector
}

func NewApplicationService(tx dbx.Transactor, m repomanager.RepositoryManager, log logging.Logger, mc *metrics.Collector) *ApplicationService {
	return &ApplicationService{
		tx:          tx,
		repomanager: m,
		now:         time.Now,
		log:         log.With("module", "applications"),
		metrics:     mc,
	}
}

// Submit stores a new application in status submitted with no reviewer
// attribution.
func (s *ApplicationService) Submit(ctx context.Context, applicantID string, data models.SubmissionData, docs []models.Document) (*models.Application, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	for i, d := range docs {
		if strings.TrimSpace(d.Name) == "" || strings.TrimSpace(d.URL) == "" {
			return nil, fmt.Errorf("%w: document %d needs a name and url", common.ErrorValidation, i)
		}
		if d.UploadedAt.IsZero() {
			docs[i].UploadedAt = s.now().UTC()
		}
	}

	app, err := s.repomanager.Applications(s.tx.Handle()).Create(ctx, &models.Application{
		ApplicantID:    applicantID,
		Status:         models.StatusSubmitted,
		SubmissionData: data,
		Documents:      docs,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating application: %w", err)
	}

	s.log.Info(ctx, "application submitted", "application_id", app.ID, "applicant_id", applicantID)
	return app, nil
}

func (s *ApplicationService) Get(ctx context.Context, id string) (*models.Application, error) {
	return s.repomanager.Applications(s.tx.Handle()).GetByID(ctx, id)
}

// List returns all applications, newest submission first.
func (s *ApplicationService) List(ctx context.Context) ([]*models.Application, error) {
	return s.repomanager.Applications(s.tx.Handle()).List(ctx)
}

// History returns the review events of an application, oldest first.
func (s *ApplicationService) History(ctx context.Context, id string) ([]*models.ReviewEvent, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repomanager.ReviewEvents(s.tx.Handle()).ListByApplication(ctx, id)
}

// ReviewTransition moves an application to next on behalf of actorID. The
// caller must already have checked that actorID is an admin.
//
// The write is conditioned on the status read here. If another transition
// lands first the call fails with common.ErrStaleStatus and nothing is
// written.
func (s *ApplicationService) ReviewTransition(ctx context.Context, id, actorID string, next models.Status, notes string) (*models.Application, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := review.Validate(current.Status, next); err != nil {
		s.metrics.RecordTransition(string(current.Status), string(next), "rejected")
		return nil, err
	}

	rv := models.Review{Status: next, Notes: notes, Actor: actorID, At: s.now().UTC()}

	var updated *models.Application
	err = s.tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		app, err := s.repomanager.Applications(tx).UpdateReview(ctx, id, current.Status, rv)
		if err != nil {
			return err
		}
		if _, err := s.repomanager.ReviewEvents(tx).Create(ctx, &models.ReviewEvent{
			ApplicationID: id,
			ActorID:       actorID,
			FromStatus:    current.Status,
			ToStatus:      next,
			Notes:         notes,
			CreatedAt:     rv.At,
		}); err != nil {
			return fmt.Errorf("error recording review event: %w", err)
		}
		updated = app
		return nil
	})
	if errors.Is(err, common.ErrorNotFound) {
		return nil, s.staleOrMissing(ctx, id, current.Status, next)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(string(current.Status), string(next), "ok")
	s.log.Info(ctx, "application status changed",
		"application_id", id, "actor_id", actorID, "from", current.Status, "to", next)
	return updated, nil
}

// staleOrMissing tells apart the two reasons a conditional update matches
// no row.
func (s *ApplicationService) staleOrMissing(ctx context.Context, id string, expected, next models.Status) error {
	latest, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	s.metrics.RecordTransition(string(expected), string(next), "stale")
	s.log.Warn(ctx, "stale review transition",
		"application_id", id, "expected", expected, "current", latest.Status, "requested", next)
	return fmt.Errorf("%w: current status is %s", common.ErrStaleStatus, latest.Status)
}
