package usecase_test

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/procura-app/procura/internal/domain"
	"github.com/procura-app/procura/internal/repository"
	"github.com/procura-app/procura/internal/usecase"
)

const testPhone = "+15551234567"

func newPhoneUsecase(users *fakeUserRepo, codes *fakePhoneRepo, sender *fakeSMSSender) *usecase.PhoneUsecase {
	return usecase.NewPhoneUsecase(users, codes, sender, testIssuer(), discardLogger())
}

var codePattern = regexp.MustCompile(`\b([0-9]{6})\b`)

// ---- RequestCode ----

func TestRequestCode_RejectsMalformedPhones(t *testing.T) {
	uc := newPhoneUsecase(&fakeUserRepo{}, &fakePhoneRepo{}, &fakeSMSSender{})

	for _, phone := range []string{"", "5551234567", "+0123456", "+1 555 123", "not-a-phone"} {
		if _, err := uc.RequestCode(context.Background(), phone); !errors.Is(err, usecase.ErrInvalidPhone) {
			t.Errorf("RequestCode(%q): want ErrInvalidPhone, got %v", phone, err)
		}
	}
}

func TestRequestCode_StoresHashOfSentCode(t *testing.T) {
	var capturedHash, capturedMessage string

	codes := &fakePhoneRepo{
		replace: func(_ context.Context, phone, codeHash string, expiresAt time.Time) error {
			if phone != testPhone {
				t.Errorf("code stored for %q, want %q", phone, testPhone)
			}
			if !expiresAt.After(time.Now()) {
				t.Errorf("expiry %v is not in the future", expiresAt)
			}
			capturedHash = codeHash
			return nil
		},
	}
	sender := &fakeSMSSender{
		send: func(_ context.Context, to, message string) error {
			if to != testPhone {
				t.Errorf("sms sent to %q, want %q", to, testPhone)
			}
			capturedMessage = message
			return nil
		},
	}

	issue, err := newPhoneUsecase(&fakeUserRepo{}, codes, sender).RequestCode(context.Background(), testPhone)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := codePattern.FindStringSubmatch(capturedMessage)
	if m == nil {
		t.Fatalf("sms %q does not contain a 6-digit code", capturedMessage)
	}
	if m[1] != issue.Code {
		t.Errorf("sent code %q != returned code %q", m[1], issue.Code)
	}
	wantHash := fmt.Sprintf("%x", sha256.Sum256([]byte(testPhone+":"+m[1])))
	if capturedHash != wantHash {
		t.Errorf("stored hash %q != SHA-256 of phone:code %q", capturedHash, wantHash)
	}
}

func TestRequestCode_UnconfiguredSender_Surfaces(t *testing.T) {
	codes := &fakePhoneRepo{
		replace: func(_ context.Context, _, _ string, _ time.Time) error { return nil },
	}
	sender := &fakeSMSSender{
		send: func(_ context.Context, _, _ string) error {
			return fmt.Errorf("send sms: %w", domain.ErrNotConfigured)
		},
	}

	_, err := newPhoneUsecase(&fakeUserRepo{}, codes, sender).RequestCode(context.Background(), testPhone)
	if !errors.Is(err, domain.ErrNotConfigured) {
		t.Errorf("want ErrNotConfigured, got %v", err)
	}
}

func TestRequestCode_DeliveryFailure_Swallowed(t *testing.T) {
	codes := &fakePhoneRepo{
		replace: func(_ context.Context, _, _ string, _ time.Time) error { return nil },
	}
	sender := &fakeSMSSender{
		send: func(_ context.Context, _, _ string) error { return errors.New("gateway timeout") },
	}

	issue, err := newPhoneUsecase(&fakeUserRepo{}, codes, sender).RequestCode(context.Background(), testPhone)
	if err != nil {
		t.Fatalf("delivery failure must not surface, got %v", err)
	}
	if issue == nil {
		t.Error("code should still be minted when delivery fails")
	}
}

// ---- VerifyCode ----

func TestVerifyCode_WrongCode_Rejected(t *testing.T) {
	codes := &fakePhoneRepo{
		claim: func(_ context.Context, _, _ string) (*domain.PhoneCode, error) {
			return nil, domain.ErrCodeInvalid
		},
	}

	_, _, err := newPhoneUsecase(&fakeUserRepo{}, codes, &fakeSMSSender{}).
		VerifyCode(context.Background(), testPhone, "000000")
	if !errors.Is(err, domain.ErrCodeInvalid) {
		t.Errorf("want ErrCodeInvalid, got %v", err)
	}
}

func TestVerifyCode_ResolvesUserAndIssuesToken(t *testing.T) {
	const code = "123456"
	wantHash := fmt.Sprintf("%x", sha256.Sum256([]byte(testPhone+":"+code)))

	providerID := testPhone
	phoneUser := &domain.User{
		ID:             9,
		Provider:       domain.ProviderPhone,
		ProviderID:     &providerID,
		Role:           domain.RoleViewer,
		SessionVersion: 1,
		Active:         true,
	}

	users := &fakeUserRepo{
		findOrCreateByProviderID: func(_ context.Context, in repository.CreateUserInput) (*domain.User, error) {
			if in.Provider != domain.ProviderPhone {
				t.Errorf("provider = %q, want phone", in.Provider)
			}
			if in.ProviderID == nil || *in.ProviderID != testPhone {
				t.Errorf("provider id = %v, want %q", in.ProviderID, testPhone)
			}
			return phoneUser, nil
		},
	}
	codes := &fakePhoneRepo{
		claim: func(_ context.Context, phone, codeHash string) (*domain.PhoneCode, error) {
			if phone != testPhone || codeHash != wantHash {
				return nil, domain.ErrCodeInvalid
			}
			return &domain.PhoneCode{ID: 3, Phone: phone, CodeHash: codeHash}, nil
		},
	}

	user, signed, err := newPhoneUsecase(users, codes, &fakeSMSSender{}).
		VerifyCode(context.Background(), testPhone, code)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != phoneUser.ID {
		t.Errorf("user id = %d, want %d", user.ID, phoneUser.ID)
	}

	claims, err := testIssuer().Parse(signed)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if id, _ := claims.UserID(); id != phoneUser.ID {
		t.Errorf("sub = %d, want %d", id, phoneUser.ID)
	}
}

func TestVerifyCode_InactiveAccount_Rejected(t *testing.T) {
	providerID := testPhone
	users := &fakeUserRepo{
		findOrCreateByProviderID: func(_ context.Context, _ repository.CreateUserInput) (*domain.User, error) {
			return &domain.User{ID: 9, Provider: domain.ProviderPhone, ProviderID: &providerID, Active: false}, nil
		},
	}
	codes := &fakePhoneRepo{
		claim: func(_ context.Context, phone, codeHash string) (*domain.PhoneCode, error) {
			return &domain.PhoneCode{ID: 3, Phone: phone, CodeHash: codeHash}, nil
		},
	}

	_, _, err := newPhoneUsecase(users, codes, &fakeSMSSender{}).
		VerifyCode(context.Background(), testPhone, "123456")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("want ErrInvalidCredentials, got %v", err)
	}
}
