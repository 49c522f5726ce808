package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/yanplatform/internal/common"
)

// Status is a review lifecycle state.
type Status string

const (
	StatusSubmitted   Status = "submitted"
	StatusScreening   Status = "screening"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusAppealed    Status = "appealed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusScreening, StatusUnderReview, StatusApproved, StatusRejected, StatusAppealed:
		return true
	}
	return false
}

// MaxSubmissionBytes caps the encoded size of a submission payload.
const MaxSubmissionBytes = 256 << 10

// SubmissionData is an applicant supplied JSON object or array. Its schema
// is not fixed; only presence, shape and size are checked.
type SubmissionData json.RawMessage

func (d SubmissionData) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

func (d *SubmissionData) UnmarshalJSON(b []byte) error {
	*d = append((*d)[:0], b...)
	return nil
}

// Validate reports ErrorValidation unless d holds a non-empty JSON object or
// array within MaxSubmissionBytes.
func (d SubmissionData) Validate() error {
	trimmed := bytes.TrimSpace(d)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("%w: submission data is required", common.ErrorValidation)
	}
	if len(trimmed) > MaxSubmissionBytes {
		return fmt.Errorf("%w: submission data exceeds %d bytes", common.ErrorValidation, MaxSubmissionBytes)
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return fmt.Errorf("%w: submission data is not valid JSON", common.ErrorValidation)
	}
	switch value := v.(type) {
	case map[string]any:
		if len(value) == 0 {
			return fmt.Errorf("%w: submission data is empty", common.ErrorValidation)
		}
	case []any:
		if len(value) == 0 {
			return fmt.Errorf("%w: submission data is empty", common.ErrorValidation)
		}
	default:
		return fmt.Errorf("%w: submission data must be an object or array", common.ErrorValidation)
	}
	return nil
}

// Document references an uploaded file.
type Document struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Party is the public profile of a user an application refers to.
type Party struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Organization string `json:"organization,omitempty"`
}

// Application is a submitted record moving through review. ReviewedBy,
// ReviewedAt and ReviewerNotes are nil until the first transition and are
// always written together.
//
// ApplicantProfile and Reviewer are read-side projections filled by the
// store on lookups; they are never written.
type Application struct {
	ID               string         `json:"id"`
	ApplicantID      string         `json:"applicant"`
	ApplicantProfile *Party         `json:"applicantProfile,omitempty"`
	Status           Status         `json:"status"`
	SubmissionData   SubmissionData `json:"submissionData"`
	Documents        []Document     `json:"documents"`
	ReviewerNotes    *string        `json:"reviewerNotes,omitempty"`
	ReviewedBy       *string        `json:"reviewedBy,omitempty"`
	Reviewer         *Party         `json:"reviewer,omitempty"`
	ReviewedAt       *time.Time     `json:"reviewedAt,omitempty"`
	SubmittedAt      time.Time      `json:"submittedAt"`
}

// Review is the attribution written by a single transition.
type Review struct {
	Status Status
	Notes  string
	Actor  string
	At     time.Time
}

// Apply returns a copy of a with r written as one unit.
func (a Application) Apply(r Review) *Application {
	notes, actor, at := r.Notes, r.Actor, r.At
	a.Status = r.Status
	a.ReviewerNotes = &notes
	a.ReviewedBy = &actor
	a.ReviewedAt = &at
	a.Reviewer = nil
	return &a
}

// ReviewEvent is one entry of an application's review history.
type ReviewEvent struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"applicationId"`
	ActorID       string    `json:"actorId"`
	FromStatus    Status    `json:"fromStatus"`
	ToStatus      Status    `json:"toStatus"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}
