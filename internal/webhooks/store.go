package webhooks

import (
	"context"

	"github.com/flashsale/checkout/internal/db"
	"github.com/flashsale/checkout/internal/orders"
)

// Store is the fast-path pre-check plus the transaction opener for the
// rest of the processing algorithm.
type Store interface {
	// LookupByKey is step 1: the unlocked pre-check outside any
	// transaction. ok is false when no log row exists for the key.
	LookupByKey(ctx context.Context, idempotencyKey string) (db.WebhookLog, bool, error)
	WithTx(ctx context.Context, fn func(ctx context.Context, tx StoreTx) error) error
}

// StoreTx is the persistence slice the processor needs inside its
// transaction. It embeds orders.CancelTx so orders.CancelPendingOrderTx
// can run the failure-path cancellation inside this same transaction.
type StoreTx interface {
	orders.CancelTx
	InsertWebhookLog(ctx context.Context, w db.WebhookLog) (db.WebhookLog, error)
	GetOrder(ctx context.Context, orderID int64) (db.Order, bool, error)
}

// Invalidator forgets a product's cache entry after a committed mutation.
type Invalidator interface {
	Forget(ctx context.Context, productID int64) error
}
