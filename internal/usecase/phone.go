package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"regexp"
	"time"

	"github.com/procura-app/procura/internal/domain"
	"github.com/procura-app/procura/internal/metrics"
	"github.com/procura-app/procura/internal/repository"
	"github.com/procura-app/procura/internal/sms"
	"github.com/procura-app/procura/internal/token"
)

const codeTTL = 5 * time.Minute

var phonePattern = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

var ErrInvalidPhone = errors.New("phone number must be in E.164 format")

// CodeIssue mirrors ResetIssue for the phone flow: the raw code is exposed by
// the handler only outside production.
type CodeIssue struct {
	Code      string
	ExpiresAt time.Time
}

type PhoneUsecase struct {
	users  repository.UserRepository
	codes  repository.PhoneCodeRepository
	sender sms.Sender
	issuer *token.Issuer
	logger *slog.Logger
}

func NewPhoneUsecase(users repository.UserRepository, codes repository.PhoneCodeRepository, sender sms.Sender, issuer *token.Issuer, logger *slog.Logger) *PhoneUsecase {
	return &PhoneUsecase{
		users:  users,
		codes:  codes,
		sender: sender,
		issuer: issuer,
		logger: logger.With("component", "phone_usecase"),
	}
}

// RequestCode mints a 6-digit code for the phone number, superseding any
// pending one. An unconfigured SMS backend is surfaced (the handler turns it
// into 501); ordinary delivery failures are recorded and swallowed.
func (u *PhoneUsecase) RequestCode(ctx context.Context, phone string) (*CodeIssue, error) {
	if !phonePattern.MatchString(phone) {
		return nil, ErrInvalidPhone
	}

	if _, err := u.codes.DeleteExpired(ctx); err != nil {
		return nil, err
	}

	code, err := generateCode()
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(codeTTL)
	if err := u.codes.Replace(ctx, phone, hashPhoneCode(phone, code), expiresAt); err != nil {
		return nil, fmt.Errorf("store phone code: %w", err)
	}

	message := fmt.Sprintf("Your procura verification code is %s. It expires in 5 minutes.", code)
	if err := u.sender.Send(ctx, phone, message); err != nil {
		if errors.Is(err, domain.ErrNotConfigured) {
			return nil, err
		}
		u.logger.ErrorContext(ctx, "phone code delivery", "error", err)
		metrics.DeliveriesTotal.WithLabelValues("sms", "error").Inc()
	} else {
		metrics.DeliveriesTotal.WithLabelValues("sms", "ok").Inc()
	}

	return &CodeIssue{Code: code, ExpiresAt: expiresAt}, nil
}

// VerifyCode consumes a pending code and resolves the phone number to its
// user, creating the record on first contact.
func (u *PhoneUsecase) VerifyCode(ctx context.Context, phone, code string) (*domain.User, string, error) {
	if !phonePattern.MatchString(phone) {
		return nil, "", ErrInvalidPhone
	}

	if _, err := u.codes.Claim(ctx, phone, hashPhoneCode(phone, code)); err != nil {
		return nil, "", err
	}

	providerID := phone
	user, err := u.users.FindOrCreateByProviderID(ctx, repository.CreateUserInput{
		Provider:   domain.ProviderPhone,
		ProviderID: &providerID,
		Role:       domain.RoleViewer,
	})
	if err != nil {
		return nil, "", err
	}
	if !user.Active {
		return nil, "", domain.ErrInvalidCredentials
	}

	signed, err := u.issuer.Issue(user)
	if err != nil {
		return nil, "", err
	}

	metrics.TokensIssuedTotal.Inc()
	return user, signed, nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func hashPhoneCode(phone, code string) string {
	return hashSecret(phone + ":" + code)
}
