// Package inmemory implements every repository over process memory. It is
// selected with the "memory" database DSN and backs the service tests.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/yanplatform/internal/common"
	"github.com/dmitrijs2005/yanplatform/internal/server/models"
	"github.com/google/uuid"
)

// Store holds all records behind a single mutex. Each repository method is
// atomic with respect to every other.
type Store struct {
	mu            sync.Mutex
	now           func() time.Time
	users         map[string]models.User
	emails        map[string]string
	refreshTokens map[string]models.RefreshToken
	applications  map[string]models.Application
	events        map[string][]models.ReviewEvent
	progress      map[[2]string]models.Progress
}

func NewStore() *Store {
	return &Store{
		now:           time.Now,
		users:         make(map[string]models.User),
		emails:        make(map[string]string),
		refreshTokens: make(map[string]models.RefreshToken),
		applications:  make(map[string]models.Application),
		events:        make(map[string][]models.ReviewEvent),
		progress:      make(map[[2]string]models.Progress),
	}
}

// Users

type Users struct{ s *Store }

func (s *Store) Users() *Users { return &Users{s} }

func (r *Users) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, ok := r.s.emails[key]; ok {
		return nil, fmt.Errorf("email %w", common.ErrorConflict)
	}
	user.ID = uuid.NewString()
	user.CreatedAt = r.s.now()
	r.s.users[user.ID] = *user
	r.s.emails[key] = user.ID
	return user, nil
}

func (r *Users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.emails[strings.ToLower(email)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u := r.s.users[id]
	return &u, nil
}

func (r *Users) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

// Refresh tokens

type RefreshTokens struct{ s *Store }

func (s *Store) RefreshTokens() *RefreshTokens { return &RefreshTokens{s} }

func (r *RefreshTokens) Create(ctx context.Context, userID string, token string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.refreshTokens[token]; ok {
		return fmt.Errorf("refresh token %w", common.ErrorConflict)
	}
	r.s.refreshTokens[token] = models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     token,
		Expires:   expiresAt,
		CreatedAt: r.s.now(),
	}
	return nil
}

func (r *RefreshTokens) Consume(ctx context.Context, token string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rt, ok := r.s.refreshTokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(r.s.refreshTokens, token)
	return &rt, nil
}

// Applications

type Applications struct{ s *Store }

func (s *Store) Applications() *Applications { return &Applications{s} }

func (r *Applications) Create(ctx context.Context, app *models.Application) (*models.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	app.ID = uuid.NewString()
	app.SubmittedAt = r.s.now()
	if app.Documents == nil {
		app.Documents = []models.Document{}
	}
	r.s.applications[app.ID] = cloneApplication(*app)
	return app, nil
}

func (r *Applications) GetByID(ctx context.Context, id string) (*models.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	app, ok := r.s.applications[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := r.s.withProfiles(app)
	return &c, nil
}

func (r *Applications) List(ctx context.Context) ([]*models.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := make([]*models.Application, 0, len(r.s.applications))
	for _, app := range r.s.applications {
		c := r.s.withProfiles(app)
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SubmittedAt.Equal(result[j].SubmittedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].SubmittedAt.After(result[j].SubmittedAt)
	})
	return result, nil
}

func (r *Applications) UpdateReview(ctx context.Context, id string, expected models.Status, rv models.Review) (*models.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	app, ok := r.s.applications[id]
	if !ok || app.Status != expected {
		return nil, common.ErrorNotFound
	}
	updated := app.Apply(rv)
	r.s.applications[id] = cloneApplication(*updated)
	c := r.s.withProfiles(*updated)
	return &c, nil
}

// withProfiles returns a detached copy of a with the applicant and reviewer
// profiles resolved. The caller holds s.mu.
func (s *Store) withProfiles(a models.Application) models.Application {
	c := cloneApplication(a)
	c.ApplicantProfile, c.Reviewer = nil, nil
	if u, ok := s.users[c.ApplicantID]; ok {
		c.ApplicantProfile = &models.Party{ID: u.ID, Name: u.Name, Email: u.Email, Organization: u.Organization}
	}
	if c.ReviewedBy != nil {
		if u, ok := s.users[*c.ReviewedBy]; ok {
			c.Reviewer = &models.Party{ID: u.ID, Name: u.Name, Email: u.Email}
		}
	}
	return c
}

func cloneApplication(a models.Application) models.Application {
	a.SubmissionData = append(models.SubmissionData(nil), a.SubmissionData...)
	a.Documents = append([]models.Document{}, a.Documents...)
	return a
}

// Review events

type ReviewEvents struct{ s *Store }

func (s *Store) ReviewEvents() *ReviewEvents { return &ReviewEvents{s} }

func (r *ReviewEvents) Create(ctx context.Context, e *models.ReviewEvent) (*models.ReviewEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e.ID = uuid.NewString()
	r.s.events[e.ApplicationID] = append(r.s.events[e.ApplicationID], *e)
	return e, nil
}

func (r *ReviewEvents) ListByApplication(ctx context.Context, applicationID string) ([]*models.ReviewEvent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	events := r.s.events[applicationID]
	result := make([]*models.ReviewEvent, 0, len(events))
	for i := range events {
		e := events[i]
		result = append(result, &e)
	}
	return result, nil
}

// Progress

type Progress struct{ s *Store }

func (s *Store) Progress() *Progress { return &Progress{s} }

func (r *Progress) MarkCompleted(ctx context.Context, userID, resourceID string, at time.Time) (*models.Progress, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := [2]string{userID, resourceID}
	p, ok := r.s.progress[key]
	if !ok {
		p = models.Progress{UserID: userID, ResourceID: resourceID, StartedAt: at}
	}
	completedAt := at
	p.Completed = true
	p.CompletedAt = &completedAt
	r.s.progress[key] = p
	return &p, nil
}

func (r *Progress) ListByUser(ctx context.Context, userID string) ([]*models.Progress, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	result := make([]*models.Progress, 0)
	for key, p := range r.s.progress {
		if key[0] == userID {
			p := p
			result = append(result, &p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartedAt.Equal(result[j].StartedAt) {
			return result[i].ResourceID < result[j].ResourceID
		}
		return result[i].StartedAt.Before(result[j].StartedAt)
	})
	return result, nil
}
