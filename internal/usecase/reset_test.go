package usecase_test

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/procura-app/procura/internal/domain"
	"github.com/procura-app/procura/internal/password"
	"github.com/procura-app/procura/internal/usecase"
)

const testBaseURL = "http://localhost:8080"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newResetUsecase(users *fakeUserRepo, resets *fakeResetRepo, sender *fakeEmailSender) *usecase.ResetUsecase {
	return usecase.NewResetUsecase(users, resets, sender, testBaseURL, discardLogger())
}

// ---- Request ----

func TestRequest_UnknownEmail_NoTokenNoError(t *testing.T) {
	users := &fakeUserRepo{
		findByEmail: func(_ context.Context, _ string) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
	}
	resets := &fakeResetRepo{
		replace: func(_ context.Context, _ int64, _ string, _ time.Time) error {
			t.Error("no token should be stored for an unknown email")
			return nil
		},
	}
	sender := &fakeEmailSender{
		send: func(_ context.Context, _, _, _ string) error {
			t.Error("no email should be sent for an unknown email")
			return nil
		},
	}

	issue, err := newResetUsecase(users, resets, sender).Request(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if issue != nil {
		t.Error("issue should be nil for an unknown email")
	}
}

func TestRequest_NonPasswordAccount_NoToken(t *testing.T) {
	googleID := "g-1"
	users := &fakeUserRepo{
		findByEmail: func(_ context.Context, _ string) (*domain.User, error) {
			return &domain.User{ID: 2, Provider: domain.ProviderGoogle, ProviderID: &googleID, Active: true}, nil
		},
	}
	resets := &fakeResetRepo{
		replace: func(_ context.Context, _ int64, _ string, _ time.Time) error {
			t.Error("no token should be stored for a non-password account")
			return nil
		},
	}
	sender := &fakeEmailSender{}

	issue, err := newResetUsecase(users, resets, sender).Request(context.Background(), "test@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if issue != nil {
		t.Error("issue should be nil for a non-password account")
	}
}

func TestRequest_StoresHashOfEmailedToken(t *testing.T) {
	user := passwordUser(t)
	var capturedHash, capturedBody string

	users := &fakeUserRepo{
		findByEmail: func(_ context.Context, _ string) (*domain.User, error) { return user, nil },
	}
	resets := &fakeResetRepo{
		replace: func(_ context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
			if userID != user.ID {
				t.Errorf("token stored for user %d, want %d", userID, user.ID)
			}
			if !expiresAt.After(time.Now()) {
				t.Errorf("expiry %v is not in the future", expiresAt)
			}
			capturedHash = tokenHash
			return nil
		},
	}
	sender := &fakeEmailSender{
		send: func(_ context.Context, to, _, body string) error {
			if to != user.EmailOrEmpty() {
				t.Errorf("email sent to %q, want %q", to, user.EmailOrEmpty())
			}
			capturedBody = body
			return nil
		},
	}

	issue, err := newResetUsecase(users, resets, sender).Request(context.Background(), "test@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if issue == nil {
		t.Fatal("issue should not be nil for a password account")
	}

	// Extract the raw token from the link embedded in the email body.
	idx := strings.Index(capturedBody, "?token=")
	if idx == -1 {
		t.Fatal("email body does not contain ?token=")
	}
	rawToken := strings.SplitN(capturedBody[idx+len("?token="):], `"`, 2)[0]

	if rawToken != issue.Token {
		t.Errorf("emailed token %q != returned token %q", rawToken, issue.Token)
	}
	wantHash := fmt.Sprintf("%x", sha256.Sum256([]byte(rawToken)))
	if capturedHash != wantHash {
		t.Errorf("stored hash %q != SHA-256 of emailed token %q", capturedHash, wantHash)
	}
}

func TestRequest_DeliveryFailure_Swallowed(t *testing.T) {
	users := &fakeUserRepo{
		findByEmail: func(_ context.Context, _ string) (*domain.User, error) { return passwordUser(t), nil },
	}
	resets := &fakeResetRepo{
		replace: func(_ context.Context, _ int64, _ string, _ time.Time) error { return nil },
	}
	sender := &fakeEmailSender{
		send: func(_ context.Context, _, _, _ string) error { return errors.New("smtp unavailable") },
	}

	issue, err := newResetUsecase(users, resets, sender).Request(context.Background(), "test@example.com")
	if err != nil {
		t.Fatalf("delivery failure must not surface, got %v", err)
	}
	if issue == nil {
		t.Error("token should still be minted when delivery fails")
	}
}

// ---- Consume ----

func TestConsume_WeakPassword_DoesNotBurnToken(t *testing.T) {
	resets := &fakeResetRepo{
		claim: func(_ context.Context, _ string) (*domain.ResetToken, error) {
			t.Error("claim should not run when the new password fails policy")
			return nil, domain.ErrResetTokenInvalid
		},
	}

	err := newResetUsecase(&fakeUserRepo{}, resets, &fakeEmailSender{}).
		Consume(context.Background(), "some-token", "weak")

	var policyErr *domain.PolicyError
	if !errors.As(err, &policyErr) {
		t.Errorf("want PolicyError, got %v", err)
	}
}

func TestConsume_InvalidToken_Rejected(t *testing.T) {
	resets := &fakeResetRepo{
		claim: func(_ context.Context, _ string) (*domain.ResetToken, error) {
			return nil, domain.ErrResetTokenInvalid
		},
	}

	err := newResetUsecase(&fakeUserRepo{}, resets, &fakeEmailSender{}).
		Consume(context.Background(), "bad-token", "NewPass!2345")
	if !errors.Is(err, domain.ErrResetTokenInvalid) {
		t.Errorf("want ErrResetTokenInvalid, got %v", err)
	}
}

func TestConsume_RewritesPasswordAndDropsTokens(t *testing.T) {
	const rawToken = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	wantHash := fmt.Sprintf("%x", sha256.Sum256([]byte(rawToken)))

	var storedHash string
	var droppedForUser int64

	users := &fakeUserRepo{
		updatePassword: func(_ context.Context, id int64, passwordHash string) error {
			if id != 1 {
				t.Errorf("password updated for user %d, want 1", id)
			}
			storedHash = passwordHash
			return nil
		},
	}
	resets := &fakeResetRepo{
		claim: func(_ context.Context, tokenHash string) (*domain.ResetToken, error) {
			if tokenHash != wantHash {
				return nil, domain.ErrResetTokenInvalid
			}
			return &domain.ResetToken{ID: 10, UserID: 1, TokenHash: tokenHash}, nil
		},
		deleteForUser: func(_ context.Context, userID int64) error {
			droppedForUser = userID
			return nil
		},
	}

	err := newResetUsecase(users, resets, &fakeEmailSender{}).
		Consume(context.Background(), rawToken, "NewPass!2345")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !password.Verify("NewPass!2345", storedHash) {
		t.Error("stored hash does not verify against the new password")
	}
	if droppedForUser != 1 {
		t.Errorf("remaining tokens dropped for user %d, want 1", droppedForUser)
	}
}
