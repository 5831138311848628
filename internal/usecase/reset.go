package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/procura-app/procura/internal/domain"
	"github.com/procura-app/procura/internal/email"
	"github.com/procura-app/procura/internal/metrics"
	"github.com/procura-app/procura/internal/password"
	"github.com/procura-app/procura/internal/repository"
)

const resetTTL = 15 * time.Minute

// ResetIssue is what Request hands back to the transport layer. Token is the
// raw secret; the handler exposes it only outside production.
type ResetIssue struct {
	Token     string
	ExpiresAt time.Time
}

type ResetUsecase struct {
	users   repository.UserRepository
	resets  repository.ResetTokenRepository
	sender  email.Sender
	baseURL string
	logger  *slog.Logger
}

func NewResetUsecase(users repository.UserRepository, resets repository.ResetTokenRepository, sender email.Sender, baseURL string, logger *slog.Logger) *ResetUsecase {
	return &ResetUsecase{
		users:   users,
		resets:  resets,
		sender:  sender,
		baseURL: baseURL,
		logger:  logger.With("component", "reset_usecase"),
	}
}

// Request starts the reset flow. It reports success whether or not the email
// matches a user; a nil ResetIssue means no token was minted. Delivery
// failures are recorded but never returned: a caller must not be able to
// distinguish "no such account" from "mail bounced".
func (u *ResetUsecase) Request(ctx context.Context, emailAddr string) (*ResetIssue, error) {
	if _, err := u.resets.DeleteExpired(ctx); err != nil {
		return nil, err
	}

	user, err := u.users.FindByEmail(ctx, NormalizeEmail(emailAddr))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.ResetRequestsTotal.Inc()
			return nil, nil
		}
		return nil, err
	}
	// Only password accounts have a credential to reset.
	if user.Provider != domain.ProviderPassword || !user.Active {
		metrics.ResetRequestsTotal.Inc()
		return nil, nil
	}

	raw := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return nil, fmt.Errorf("generate reset token: %w", err)
	}
	rawToken := hex.EncodeToString(raw)

	expiresAt := time.Now().Add(resetTTL)
	if err := u.resets.Replace(ctx, user.ID, hashSecret(rawToken), expiresAt); err != nil {
		return nil, fmt.Errorf("store reset token: %w", err)
	}

	link := u.baseURL + "/auth/reset?token=" + rawToken
	if err := u.sender.Send(ctx, user.EmailOrEmpty(), "Reset your password", email.ResetBody(link)); err != nil {
		u.logger.ErrorContext(ctx, "reset email delivery", "error", err)
		metrics.DeliveriesTotal.WithLabelValues("email", "error").Inc()
	} else {
		metrics.DeliveriesTotal.WithLabelValues("email", "ok").Inc()
	}

	metrics.ResetRequestsTotal.Inc()
	return &ResetIssue{Token: rawToken, ExpiresAt: expiresAt}, nil
}

// Consume trades a live reset secret for a new password hash. The policy is
// checked before the token is claimed so a weak password does not burn the
// secret; the claim itself deletes the record, making it single-use. Any
// other token the user still holds is dropped along with it.
func (u *ResetUsecase) Consume(ctx context.Context, rawToken, newPassword string) error {
	if _, err := u.resets.DeleteExpired(ctx); err != nil {
		return err
	}

	if violations := password.CheckPolicy(newPassword); len(violations) > 0 {
		return &domain.PolicyError{Violations: violations}
	}

	claimed, err := u.resets.Claim(ctx, hashSecret(rawToken))
	if err != nil {
		return err
	}

	hash, err := password.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := u.users.UpdatePassword(ctx, claimed.UserID, hash); err != nil {
		return err
	}
	if err := u.resets.DeleteForUser(ctx, claimed.UserID); err != nil {
		return fmt.Errorf("invalidate reset tokens: %w", err)
	}
	return nil
}

func hashSecret(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
