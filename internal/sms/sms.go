// Package sms delivers one-time phone codes. There is no provider binding
// yet; local/staging environments log the code, and production without
// credentials refuses with domain.ErrNotConfigured so the handler can answer
// 501 instead of silently dropping codes.
package sms

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/procura-app/procura/internal/domain"
)

type Sender interface {
	Send(ctx context.Context, to, message string) error
}

// LogSender logs codes instead of sending them.
type LogSender struct {
	logger *slog.Logger
}

func (s *LogSender) Send(_ context.Context, to, message string) error {
	s.logger.Info("phone code sms (local dev)", "to", to, "message", message)
	return nil
}

// UnconfiguredSender rejects every send; used in production when no SMS
// provider credentials are present.
type UnconfiguredSender struct{}

func (UnconfiguredSender) Send(context.Context, string, string) error {
	return fmt.Errorf("sms delivery: %w", domain.ErrNotConfigured)
}

// NewSender picks the delivery backend. Production demands a real provider;
// until one is bound, configured credentials are still refused rather than
// pretending delivery happened.
// TODO: bind a real SMS provider once one is chosen.
func NewSender(env, apiKey, from string, logger *slog.Logger) Sender {
	if env == "production" {
		return UnconfiguredSender{}
	}
	_, _ = apiKey, from
	return &LogSender{logger: logger}
}
