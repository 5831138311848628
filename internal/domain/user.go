package domain

import "time"

type Provider string

const (
	ProviderPassword Provider = "password"
	ProviderGoogle   Provider = "google"
	ProviderApple    Provider = "apple"
	ProviderPhone    Provider = "phone"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// User is the canonical identity record. One row per (provider, provider_id)
// pair and per normalized email; both are enforced by unique indexes.
type User struct {
	ID         int64
	Provider   Provider
	ProviderID *string
	Email      *string
	// PasswordHash is set only for ProviderPassword users.
	PasswordHash *string
	Name         string
	Role         Role
	// SessionVersion starts at 1 and only ever increases. Tokens minted at an
	// older version are dead.
	SessionVersion int
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EmailOrEmpty returns the user's email, or "" when none is on record.
func (u *User) EmailOrEmpty() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}
