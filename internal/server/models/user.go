package models

import "time"

// Role is one of a closed set of access labels.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleMember    Role = "member"
	RoleApplicant Role = "applicant"
	RolePartner   Role = "partner"
	RolePublic    Role = "public"
)

// DefaultRole is assigned when registration does not name a role.
const DefaultRole = RoleApplicant

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMember, RoleApplicant, RolePartner, RolePublic:
		return true
	}
	return false
}

// User is a credential record. PasswordHash is never serialized.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Organization string    `json:"organization,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Public returns a copy with the password hash cleared.
func (u User) Public() *User {
	u.PasswordHash = ""
	return &u
}
