// Package sweeper periodically scans for active holds whose expiry has
// passed and feeds them into the hold manager's release path. One short
// transaction per hold; a per-hold failure is logged and the tick
// continues.
package sweeper

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Scanner lists the ids of holds eligible for release. Unlocked — each
// release re-checks status under lock in its own transaction.
type Scanner interface {
	ExpiredHoldIDs(ctx context.Context, before time.Time) ([]int64, error)
}

// Releaser is satisfied by *holds.Manager.
type Releaser interface {
	ReleaseExpiredHold(ctx context.Context, holdID int64) (bool, error)
}

type Sweeper struct {
	scanner  Scanner
	releaser Releaser
	period   time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

func New(scanner Scanner, releaser Releaser, period time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{scanner: scanner, releaser: releaser, period: period, now: time.Now, logger: logger}
}

func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Run ticks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("sweeper stopping")
			return
		case <-ticker.C:
			released, err := s.Tick(ctx)
			if err != nil {
				s.logger.Error().Err(err).Msg("sweeper tick failed")
				continue
			}
			if released > 0 {
				s.logger.Info().Int("released", released).Msg("sweeper released expired holds")
			}
		}
	}
}

// Tick performs one scan-and-release pass and returns the number of holds
// actually released. A per-hold error is logged and never aborts the pass.
func (s *Sweeper) Tick(ctx context.Context) (int, error) {
	ids, err := s.scanner.ExpiredHoldIDs(ctx, s.now())
	if err != nil {
		return 0, err
	}

	released := 0
	for _, id := range ids {
		ok, err := s.releaser.ReleaseExpiredHold(ctx, id)
		if err != nil {
			s.logger.Error().Err(err).Int64("hold_id", id).Msg("failed to release expired hold")
			continue
		}
		if ok {
			released++
		}
	}
	return released, nil
}
