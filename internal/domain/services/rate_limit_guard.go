package services

import (
	"context"
	"time"

	"github.com/ochairo/aiaudit/internal/domain/entities"
	"github.com/ochairo/aiaudit/internal/domain/interfaces"
	"github.com/ochairo/aiaudit/internal/domain/interfaces/gateways"
)

// DefaultRateLimitThreshold is the remaining-request count below which the
// guard waits for the quota to reset
const DefaultRateLimitThreshold = 10

// RateLimitGuard suspends the run when the API quota is nearly exhausted.
// It is the only writer of the run's RateLimitState.
type RateLimitGuard struct {
	quota     gateways.QuotaGateway
	threshold int
	logger    interfaces.Logger
	state     entities.RateLimitState
	onWait    func(time.Duration)

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// GuardOption customizes a RateLimitGuard
type GuardOption func(*RateLimitGuard)

// WithThreshold overrides the remaining-request threshold
func WithThreshold(n int) GuardOption {
	return func(g *RateLimitGuard) {
		if n > 0 {
			g.threshold = n
		}
	}
}

// WithWaitHook registers a callback invoked before each wait
func WithWaitHook(fn func(time.Duration)) GuardOption {
	return func(g *RateLimitGuard) {
		g.onWait = fn
	}
}

// WithClock replaces the clock and sleep functions (tests)
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) GuardOption {
	return func(g *RateLimitGuard) {
		g.now = now
		g.sleep = sleep
	}
}

// NewRateLimitGuard creates a guard over a quota source. A nil quota
// source yields a guard that never waits.
func NewRateLimitGuard(quota gateways.QuotaGateway, logger interfaces.Logger, opts ...GuardOption) *RateLimitGuard {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	g := &RateLimitGuard{
		quota:     quota,
		threshold: DefaultRateLimitThreshold,
		logger:    logger,
		state:     entities.RateLimitState{Remaining: -1},
		now:       time.Now,
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Wait refreshes the quota and blocks until reset when fewer than
// threshold requests remain. It returns early only if ctx is canceled.
func (g *RateLimitGuard) Wait(ctx context.Context) error {
	if g == nil || g.quota == nil {
		return ctx.Err()
	}

	q, err := g.quota.Quota(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		// Quota lookups are advisory; the guarded call reports real failures
		g.logger.Debug("rate limit check failed", interfaces.F("error", err))
		return nil
	}

	g.state.CheckedAt = g.now()
	if !q.Known {
		return nil
	}
	g.state.Remaining = q.Remaining
	g.state.ResetAt = q.ResetAt

	if q.Remaining >= g.threshold {
		return nil
	}

	wait := q.ResetAt.Sub(g.now())
	if wait <= 0 {
		return nil
	}
	wait += time.Second

	g.state.Waits++
	g.logger.Warn("rate limit approaching, waiting for reset",
		interfaces.F("remaining", q.Remaining),
		interfaces.F("reset_at", q.ResetAt.Format(time.RFC3339)),
		interfaces.F("wait", wait.Round(time.Second).String()))
	if g.onWait != nil {
		g.onWait(wait)
	}

	return g.sleep(ctx, wait)
}

// State returns a copy of the current rate limit state
func (g *RateLimitGuard) State() entities.RateLimitState {
	if g == nil {
		return entities.RateLimitState{Remaining: -1}
	}
	return g.state
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
