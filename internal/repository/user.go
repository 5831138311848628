package repository

import (
	"context"

	"github.com/procura-app/procura/internal/domain"
)

// CreateUserInput carries everything needed to insert a new identity. The id,
// session version, active flag and timestamps are assigned by storage.
type CreateUserInput struct {
	Provider     domain.Provider
	ProviderID   *string
	Email        *string
	PasswordHash *string
	Name         string
	Role         domain.Role
}

type UserRepository interface {
	// FindByEmail matches on the normalized (lower-cased) email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByProviderID(ctx context.Context, provider domain.Provider, providerID string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, in CreateUserInput) (*domain.User, error)
	// FindOrCreateByProviderID is the identity-unifier upsert: at most one
	// user per (provider, provider id), atomic at the storage layer.
	FindOrCreateByProviderID(ctx context.Context, in CreateUserInput) (*domain.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateProfile(ctx context.Context, id int64, name string) (*domain.User, error)
	// BumpSessionVersion increments the counter and returns the new value,
	// killing every token issued before the bump.
	BumpSessionVersion(ctx context.Context, id int64) (int, error)
}
