package models

import "time"

// Progress records a user's completion of a catalog resource. The pair
// (UserID, ResourceID) is unique.
type Progress struct {
	UserID      string     `json:"user"`
	ResourceID  string     `json:"resource"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	StartedAt   time.Time  `json:"startedAt"`
}
