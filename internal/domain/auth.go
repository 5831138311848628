package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("token is invalid or expired")
	ErrSessionRevoked     = errors.New("session has been revoked")
	ErrDuplicateEmail     = errors.New("email is already registered")
	ErrResetTokenInvalid  = errors.New("reset token is invalid or expired")
	ErrCodeInvalid        = errors.New("verification code is invalid or expired")
	ErrNotConfigured      = errors.New("provider is not configured")
)

// PolicyError carries every password-policy violation at once so callers can
// present the full list instead of the first failure.
type PolicyError struct {
	Violations []string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("password policy: %s", strings.Join(e.Violations, "; "))
}

// ResetToken is a pending password-reset record. Only the SHA-256 of the
// secret is stored; the raw secret leaves the process exactly once, in the
// delivery channel.
type ResetToken struct {
	ID        int64
	UserID    int64
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// PhoneCode is a pending one-time phone verification code.
type PhoneCode struct {
	ID        int64
	Phone     string
	CodeHash  string
	ExpiresAt time.Time
	CreatedAt time.Time
}
