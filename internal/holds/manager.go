// Package holds creates and releases stock reservations: the only two
// operations that may change Product.stock on the reservation side of the
// system.
package holds

import (
	"context"
	"errors"
	"time"

	"github.com/flashsale/checkout/internal/apperr"
	"github.com/flashsale/checkout/internal/db"
	"github.com/rs/zerolog"
)

const (
	maxRetries     = 3
	initialBackoff = 20 * time.Millisecond
)

// Manager owns the stock-decrement transaction. Clock is injected so tests
// can pin expires_at boundaries.
type Manager struct {
	store  Store
	cache  Invalidator
	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

func NewManager(store Store, cache Invalidator, ttl time.Duration, logger zerolog.Logger) *Manager {
	return &Manager{store: store, cache: cache, ttl: ttl, now: time.Now, logger: logger}
}

// WithClock overrides the manager's clock; used by tests to pin
// expires_at/now.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// CreateHold decrements the product's stock and creates a time-bounded
// active hold inside one transaction. Preconditions (quantity >= 1,
// well-formed product_id) are the caller's responsibility; this method
// assumes they already hold.
func (m *Manager) CreateHold(ctx context.Context, productID int64, quantity int) (db.Hold, error) {
	var result db.Hold

	err := withRetry(ctx, m.logger, func() error {
		return m.store.WithTx(ctx, func(ctx context.Context, tx StoreTx) error {
			product, err := tx.LockProduct(ctx, productID)
			if err != nil {
				if errors.Is(err, apperr.ErrProductNotFound) {
					return apperr.ErrProductNotFound
				}
				return err
			}

			if product.Stock < quantity {
				return apperr.NewInsufficientStock(product.Stock)
			}

			if err := tx.SetProductStock(ctx, productID, product.Stock-quantity); err != nil {
				return err
			}

			now := m.now()
			hold, err := tx.InsertHold(ctx, db.Hold{
				ProductID: productID,
				Quantity:  quantity,
				Status:    db.HoldActive,
				ExpiresAt: now.Add(m.ttl),
				CreatedAt: now,
			})
			if err != nil {
				return err
			}

			result = hold
			return nil
		})
	})
	if err != nil {
		return db.Hold{}, err
	}

	if err := m.cache.Forget(ctx, productID); err != nil {
		m.logger.Warn().Err(err).Int64("product_id", productID).Msg("failed to invalidate product cache")
	}

	return result, nil
}

// ReleaseExpiredHold returns a stale hold's quantity to the product's
// stock and marks the hold expired, reporting whether a release actually
// occurred. Called by the sweeper. Re-checks the hold's status under lock
// because a concurrent order creation may have converted it to used since
// the sweeper's scan.
func (m *Manager) ReleaseExpiredHold(ctx context.Context, holdID int64) (bool, error) {
	var released bool
	var productID int64

	err := withRetry(ctx, m.logger, func() error {
		return m.store.WithTx(ctx, func(ctx context.Context, tx StoreTx) error {
			hold, err := tx.LockHold(ctx, holdID)
			if err != nil {
				return err
			}

			if hold.Status != db.HoldActive {
				released = false
				return nil
			}

			product, err := tx.LockProduct(ctx, hold.ProductID)
			if err != nil {
				return err
			}

			if err := tx.SetProductStock(ctx, hold.ProductID, product.Stock+hold.Quantity); err != nil {
				return err
			}
			if err := tx.SetHoldStatus(ctx, holdID, db.HoldExpired); err != nil {
				return err
			}

			released = true
			productID = hold.ProductID
			return nil
		})
	})
	if err != nil {
		return false, err
	}

	if released {
		if err := m.cache.Forget(ctx, productID); err != nil {
			m.logger.Warn().Err(err).Int64("product_id", productID).Msg("failed to invalidate product cache")
		}
	}

	return released, nil
}

// withRetry retries fn a bounded number of times on Postgres serialization
// failure or deadlock, sleeping with doubling backoff between attempts and
// giving up after maxRetries.
func withRetry(ctx context.Context, logger zerolog.Logger, fn func() error) error {
	backoff := initialBackoff
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !db.IsSerializationFailure(err) {
			return err
		}
		lastErr = err
		logger.Debug().Int("attempt", attempt+1).Msg("retrying after serialization failure")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return apperr.ErrTransientContention.WithCause(lastErr)
}
