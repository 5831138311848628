package repository

import (
	"context"
	"time"

	"github.com/procura-app/procura/internal/domain"
)

type ResetTokenRepository interface {
	// Replace deletes any live token for the user and stores the new hash, so
	// at most one reset token is outstanding per user.
	Replace(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error
	// Claim atomically deletes and returns the unexpired token matching the
	// hash. domain.ErrResetTokenInvalid when there is none.
	Claim(ctx context.Context, tokenHash string) (*domain.ResetToken, error)
	DeleteForUser(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type PhoneCodeRepository interface {
	// Replace supersedes any pending code for the phone number.
	Replace(ctx context.Context, phone, codeHash string, expiresAt time.Time) error
	// Claim atomically deletes and returns the unexpired code for the phone
	// number if its hash matches. domain.ErrCodeInvalid otherwise.
	Claim(ctx context.Context, phone, codeHash string) (*domain.PhoneCode, error)
	DeleteExpired(ctx context.Context) (int64, error)
}
