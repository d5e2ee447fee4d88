// Package webhooks settles orders against asynchronous payment outcomes.
// Processing must survive arbitrary provider retries, deliveries that
// arrive before their order exists, and interleaving between two retried
// deliveries of the same idempotency key.
package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/flashsale/checkout/internal/apperr"
	"github.com/flashsale/checkout/internal/db"
	"github.com/flashsale/checkout/internal/orders"
	"github.com/rs/zerolog"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"

	maxRetries     = 3
	initialBackoff = 20 * time.Millisecond
)

// Result carries the user-visible outcome message and whether the
// delivery was a replay of an already-processed key.
type Result struct {
	Message          string
	AlreadyProcessed bool
}

type Processor struct {
	store  Store
	cache  Invalidator
	now    func() time.Time
	logger zerolog.Logger
}

func NewProcessor(store Store, cache Invalidator, logger zerolog.Logger) *Processor {
	return &Processor{store: store, cache: cache, now: time.Now, logger: logger}
}

func (p *Processor) WithClock(now func() time.Time) *Processor {
	p.now = now
	return p
}

// Process settles or cancels the order named by one webhook delivery,
// collapsing replays of the same idempotency key into a single committed
// side effect. paymentStatus is validated to be "success" or "failure" at
// the HTTP edge; the check below is a defensive assertion.
//
// The returned error is non-nil only for the order-not-found business
// case (so the HTTP layer can map it to 400) or for a genuine failure. In
// the order-not-found case Result still carries the user-visible message;
// on any other error Result is the zero value. A nil error with
// AlreadyProcessed true or false is the normal success path.
func (p *Processor) Process(ctx context.Context, idempotencyKey string, orderID int64, paymentStatus string, rawPayload json.RawMessage) (Result, error) {
	if paymentStatus != StatusSuccess && paymentStatus != StatusFailure {
		return Result{}, apperr.NewValidation(`payment_status must be "success" or "failure"`)
	}

	// Fast-path pre-check outside any transaction. The stored log's
	// status is authoritative regardless of what this delivery says.
	if _, ok, err := p.store.LookupByKey(ctx, idempotencyKey); err != nil {
		return Result{}, err
	} else if ok {
		p.logger.Debug().Str("idempotency_key", idempotencyKey).Msg("webhook pre-check hit")
		return Result{Message: "Webhook already processed", AlreadyProcessed: true}, nil
	}

	var result Result
	var businessErr error
	var productID int64
	var invalidate bool

	err := withRetry(ctx, p.logger, func() error {
		return p.store.WithTx(ctx, func(ctx context.Context, tx StoreTx) error {
			// The order read is side-effect free, so reading ahead of the
			// claim below cannot weaken the idempotency guarantee, which
			// rests entirely on the UNIQUE key claimed next.
			order, found, err := tx.GetOrder(ctx, orderID)
			if err != nil {
				return err
			}

			var loggedOrderID *int64
			if found {
				id := order.ID
				loggedOrderID = &id
			}

			// Claim the idempotency key. A unique violation here means the
			// pre-check raced against another delivery of the same key.
			if _, err := tx.InsertWebhookLog(ctx, db.WebhookLog{
				IdempotencyKey: idempotencyKey,
				OrderID:        loggedOrderID,
				Status:         webhookLogStatus(paymentStatus),
				Payload:        rawPayload,
				ProcessedAt:    p.now(),
			}); err != nil {
				if errors.Is(err, apperr.ErrWebhookAlreadyProcessed) {
					result = Result{Message: "Webhook already processed", AlreadyProcessed: true}
					return nil
				}
				return err
			}

			if !found {
				// Webhook arrived before the order. The log row above commits
				// with order_id = NULL so future retries of this key are
				// suppressed by the pre-check. Nothing replays the delivery
				// once the order appears; operators inspect log rows with a
				// null order_id out of band.
				result = Result{Message: "Order not found - webhook may have arrived early", AlreadyProcessed: false}
				businessErr = apperr.ErrOrderNotFound
				return nil
			}

			switch paymentStatus {
			case StatusSuccess:
				paidAt := p.now()
				if err := tx.SetOrderStatus(ctx, order.ID, db.OrderPaid, &paidAt); err != nil {
					return err
				}
				result = Result{Message: "Payment successful, order marked as paid", AlreadyProcessed: false}
			case StatusFailure:
				if _, _, err := orders.CancelPendingOrderTx(ctx, tx, order.ID); err != nil {
					return err
				}
				result = Result{Message: "Payment failed, order cancelled and stock returned", AlreadyProcessed: false}
			}

			productID = order.ProductID
			invalidate = true
			return nil
		})
	})
	if err != nil {
		// Any failure rolls back the log insertion too, so the next retry
		// of this key re-enters the full path. A transient failure must not
		// be absorbed by a committed log row.
		return Result{}, err
	}

	if invalidate {
		if err := p.cache.Forget(ctx, productID); err != nil {
			p.logger.Warn().Err(err).Int64("product_id", productID).Msg("failed to invalidate product cache")
		}
	}

	return result, businessErr
}

func webhookLogStatus(paymentStatus string) db.WebhookStatus {
	if paymentStatus == StatusSuccess {
		return db.WebhookSuccess
	}
	return db.WebhookFailure
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
