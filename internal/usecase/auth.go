package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/procura-app/procura/internal/domain"
	"github.com/procura-app/procura/internal/metrics"
	"github.com/procura-app/procura/internal/password"
	"github.com/procura-app/procura/internal/repository"
	"github.com/procura-app/procura/internal/token"
)

type AuthUsecase struct {
	users  repository.UserRepository
	resets repository.ResetTokenRepository
	issuer *token.Issuer
}

func NewAuthUsecase(users repository.UserRepository, resets repository.ResetTokenRepository, issuer *token.Issuer) *AuthUsecase {
	return &AuthUsecase{users: users, resets: resets, issuer: issuer}
}

// NormalizeEmail is the canonical email key: trimmed and lower-cased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a password-provider user and signs them in.
func (u *AuthUsecase) Register(ctx context.Context, email, plain, name string) (*domain.User, string, error) {
	email = NormalizeEmail(email)

	if violations := password.CheckPolicy(plain); len(violations) > 0 {
		return nil, "", &domain.PolicyError{Violations: violations}
	}

	hash, err := password.Hash(plain)
	if err != nil {
		return nil, "", err
	}

	user, err := u.users.Create(ctx, repository.CreateUserInput{
		Provider:     domain.ProviderPassword,
		Email:        &email,
		PasswordHash: &hash,
		Name:         name,
		Role:         domain.RoleViewer,
	})
	if err != nil {
		return nil, "", err
	}

	signed, err := u.issue(user)
	if err != nil {
		return nil, "", err
	}

	metrics.RegistrationsTotal.WithLabelValues(string(domain.ProviderPassword)).Inc()
	return user, signed, nil
}

// Login verifies a password pair. Every failure mode collapses into
// ErrInvalidCredentials so responses cannot be used to enumerate accounts.
func (u *AuthUsecase) Login(ctx context.Context, email, plain string) (*domain.User, string, error) {
	user, err := u.users.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.LoginsTotal.WithLabelValues("invalid").Inc()
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if user.Provider != domain.ProviderPassword || user.PasswordHash == nil ||
		!user.Active || !password.Verify(plain, *user.PasswordHash) {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return nil, "", domain.ErrInvalidCredentials
	}

	signed, err := u.issue(user)
	if err != nil {
		return nil, "", err
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	return user, signed, nil
}

// ChangePassword re-proves the current password before rewriting the hash,
// then drops every outstanding reset token for the user. A known-password
// change must not leave a reset backdoor open.
func (u *AuthUsecase) ChangePassword(ctx context.Context, user *domain.User, current, next string) error {
	if user.PasswordHash == nil || !password.Verify(current, *user.PasswordHash) {
		return domain.ErrInvalidCredentials
	}

	if violations := password.CheckPolicy(next); len(violations) > 0 {
		return &domain.PolicyError{Violations: violations}
	}

	hash, err := password.Hash(next)
	if err != nil {
		return err
	}
	if err := u.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	if err := u.resets.DeleteForUser(ctx, user.ID); err != nil {
		return fmt.Errorf("invalidate reset tokens: %w", err)
	}
	return nil
}

// RevokeAll bumps the session version, killing every outstanding token for
// the user, including the one that authorized this call.
func (u *AuthUsecase) RevokeAll(ctx context.Context, userID int64) error {
	if _, err := u.users.BumpSessionVersion(ctx, userID); err != nil {
		return err
	}
	metrics.SessionRevocationsTotal.Inc()
	return nil
}

func (u *AuthUsecase) UpdateProfile(ctx context.Context, userID int64, name string) (*domain.User, error) {
	return u.users.UpdateProfile(ctx, userID, name)
}

func (u *AuthUsecase) issue(user *domain.User) (string, error) {
	signed, err := u.issuer.Issue(user)
	if err != nil {
		return "", err
	}
	metrics.TokensIssuedTotal.Inc()
	return signed, nil
}
