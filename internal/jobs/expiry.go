package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// StaleExpirer cancels unpaid appointments created before cutoff.
type StaleExpirer interface {
	ExpireStale(ctx context.Context, cutoff time.Time) (int, error)
}

// runTimeout bound on a single sweep
const runTimeout = 30 * time.Second

// PaymentExpiry periodically releases slots held by checkouts that were
// never completed.
type PaymentExpiry struct {
	cron    *cron.Cron
	expirer StaleExpirer
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// NewPaymentExpiry schedules the sweep on spec (standard cron syntax or
// descriptors such as "@every 1m"). It does not start the scheduler.
func NewPaymentExpiry(spec string, ttl time.Duration, expirer StaleExpirer, logger *zap.Logger) (*PaymentExpiry, error) {
	j := &PaymentExpiry{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DiscardLogger),
			cron.Recover(cron.DiscardLogger),
		)),
		expirer: expirer,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
	if _, err := j.cron.AddFunc(spec, j.run); err != nil {
		return nil, fmt.Errorf("schedule payment expiry %q: %w", spec, err)
	}
	return j, nil
}

// Start runs the scheduler in its own goroutine.
func (j *PaymentExpiry) Start() {
	j.cron.Start()
	j.logger.Info("payment expiry scheduled", zap.Duration("pending_payment_ttl", j.ttl))
}

// Stop waits for a running sweep, or for ctx to end.
func (j *PaymentExpiry) Stop(ctx context.Context) {
	done := j.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		j.logger.Warn("payment expiry still running at shutdown")
	}
}

func (j *PaymentExpiry) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	if _, err := j.RunOnce(ctx); err != nil {
		j.logger.Error("expire stale payments", zap.Error(err))
	}
}

// RunOnce performs a single sweep and reports how many appointments were
// cancelled.
func (j *PaymentExpiry) RunOnce(ctx context.Context) (int, error) {
	cutoff := j.now().Add(-j.ttl)
	n, err := j.expirer.ExpireStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		j.logger.Info("expired unpaid appointments", zap.Int("count", n), zap.Time("cutoff", cutoff))
	}
	return n, nil
}
