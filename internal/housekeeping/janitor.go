// Package housekeeping sweeps expired ephemeral credential records. The
// flows already prune lazily before each operation; the janitor keeps tables
// and limiter maps from growing while those flows sit idle.
package housekeeping

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/procura-app/procura/internal/metrics"
	"github.com/procura-app/procura/internal/ratelimit"
	"github.com/procura-app/procura/internal/repository"
)

const sweepTimeout = 30 * time.Second

type Janitor struct {
	resets   repository.ResetTokenRepository
	codes    repository.PhoneCodeRepository
	limiters []*ratelimit.Limiter
	logger   *slog.Logger
	cron     *cron.Cron
}

func NewJanitor(resets repository.ResetTokenRepository, codes repository.PhoneCodeRepository, limiters []*ratelimit.Limiter, logger *slog.Logger) *Janitor {
	return &Janitor{
		resets:   resets,
		codes:    codes,
		limiters: limiters,
		logger:   logger.With("component", "janitor"),
		cron:     cron.New(),
	}
}

func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc("@every 5m", j.sweep); err != nil {
		return err
	}
	j.cron.Start()
	j.logger.Info("janitor started", "interval", "5m")
	return nil
}

// Stop halts scheduling and returns once any in-flight sweep finishes.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("janitor stopped")
}

func (j *Janitor) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if n, err := j.resets.DeleteExpired(ctx); err != nil {
		j.logger.Error("prune reset tokens", "error", err)
	} else if n > 0 {
		metrics.HousekeepingPrunedTotal.WithLabelValues("reset_token").Add(float64(n))
		j.logger.Info("pruned expired reset tokens", "count", n)
	}

	if n, err := j.codes.DeleteExpired(ctx); err != nil {
		j.logger.Error("prune phone codes", "error", err)
	} else if n > 0 {
		metrics.HousekeepingPrunedTotal.WithLabelValues("phone_code").Add(float64(n))
		j.logger.Info("pruned expired phone codes", "count", n)
	}

	for _, l := range j.limiters {
		l.Prune()
	}
}
