package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/yanplatform/internal/common"
	"github.com/dmitrijs2005/yanplatform/internal/dbx"
	"github.com/dmitrijs2005/yanplatform/internal/server/models"
	"github.com/dmitrijs2005/yanplatform/internal/server/repositories/repomanager"
)

type ProgressService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

func NewProgressService(tx dbx.Transactor, m repomanager.RepositoryManager) *ProgressService {
	return &ProgressService{tx: tx, repomanager: m, now: time.Now}
}

// MarkCompleted records that userID finished resourceID. Repeated calls
// update the same record.
func (s *ProgressService) MarkCompleted(ctx context.Context, userID, resourceID string) (*models.Progress, error) {
	resourceID = strings.TrimSpace(resourceID)
	if resourceID == "" {
		return nil, fmt.Errorf("%w: resource id is required", common.ErrorValidation)
	}
	return s.repomanager.Progress(s.tx.Handle()).MarkCompleted(ctx, userID, resourceID, s.now().UTC())
}

func (s *ProgressService) ListForUser(ctx context.Context, userID string) ([]*models.Progress, error) {
	return s.repomanager.Progress(s.tx.Handle()).ListByUser(ctx, userID)
}
