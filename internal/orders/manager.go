// Package orders converts still-valid holds into pending orders and
// cancels pending orders. Creating an order never moves stock: the units
// were already debited from Product.stock when the hold was created.
package orders

import (
	"context"
	"errors"
	"time"

	"github.com/flashsale/checkout/internal/apperr"
	"github.com/flashsale/checkout/internal/db"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	maxRetries     = 3
	initialBackoff = 20 * time.Millisecond
)

type Manager struct {
	store  Store
	cache  Invalidator
	now    func() time.Time
	logger zerolog.Logger
}

func NewManager(store Store, cache Invalidator, logger zerolog.Logger) *Manager {
	return &Manager{store: store, cache: cache, now: time.Now, logger: logger}
}

func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// CreateOrderFromHold converts a hold into a pending order and marks the
// hold used. Rejects a hold that does not exist, is not active, has
// expired (even if nominally active, since the sweeper may not have caught
// it yet), or already has an order. The UNIQUE constraint on
// orders.hold_id is the authoritative defence against a successful race
// between two concurrent callers that both passed these pre-checks.
func (m *Manager) CreateOrderFromHold(ctx context.Context, holdID int64) (db.Order, error) {
	var result db.Order

	err := withRetry(ctx, m.logger, func() error {
		return m.store.WithTx(ctx, func(ctx context.Context, tx StoreTx) error {
			hold, err := tx.LockHold(ctx, holdID)
			if err != nil {
				return err
			}

			if hold.Status == db.HoldUsed {
				return apperr.ErrHoldAlreadyUsed
			}
			if hold.Status != db.HoldActive {
				return apperr.NewHoldNotActive(string(hold.Status))
			}

			if !hold.ExpiresAt.After(m.now()) {
				return apperr.ErrHoldExpired
			}

			product, err := tx.LockProduct(ctx, hold.ProductID)
			if err != nil {
				return err
			}

			totalPrice := product.Price.Mul(decimal.NewFromInt(int64(hold.Quantity)))

			order, err := tx.InsertOrder(ctx, db.Order{
				HoldID:     hold.ID,
				ProductID:  hold.ProductID,
				Quantity:   hold.Quantity,
				TotalPrice: totalPrice,
				Status:     db.OrderPending,
				CreatedAt:  m.now(),
			})
			if err != nil {
				return err
			}

			if err := tx.SetHoldStatus(ctx, hold.ID, db.HoldUsed); err != nil {
				return err
			}

			result = order
			return nil
		})
	})
	if err != nil {
		return db.Order{}, err
	}

	return result, nil
}

// CancelOrder returns a pending order's quantity to the product's stock
// and marks the order cancelled, reporting whether a cancellation actually
// occurred. Idempotent: any status other than pending is a no-op returning
// false. The linked hold stays used.
func (m *Manager) CancelOrder(ctx context.Context, orderID int64) (bool, error) {
	var cancelled bool
	var productID int64

	err := withRetry(ctx, m.logger, func() error {
		return m.store.WithTx(ctx, func(ctx context.Context, tx StoreTx) error {
			order, ok, err := CancelPendingOrderTx(ctx, tx, orderID)
			if err != nil {
				if errors.Is(err, apperr.ErrOrderNotFound) {
					return apperr.ErrOrderNotFound
				}
				return err
			}
			cancelled = ok
			productID = order.ProductID
			return nil
		})
	})
	if err != nil {
		return false, err
	}

	if cancelled {
		if err := m.cache.Forget(ctx, productID); err != nil {
			m.logger.Warn().Err(err).Int64("product_id", productID).Msg("failed to invalidate product cache")
		}
	}

	return cancelled, nil
}

// withRetry retries fn a bounded number of times on Postgres serialization
// failure or deadlock, sleeping with doubling backoff between attempts.
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
