package orders

import (
	"context"
	"time"

	"github.com/flashsale/checkout/internal/db"
)

// Store opens the transaction createOrderFromHold/cancelOrder run in.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx StoreTx) error) error
}

// StoreTx is the persistence slice the order manager needs inside one
// transaction. CancelTx is the subset reused by the webhook processor's
// failure path (see orders.CancelPendingOrderTx) — any type with these
// four methods satisfies it, Postgres-backed or not.
type StoreTx interface {
	CancelTx
	LockHold(ctx context.Context, holdID int64) (db.Hold, error)
	SetHoldStatus(ctx context.Context, holdID int64, status db.HoldStatus) error
	InsertOrder(ctx context.Context, o db.Order) (db.Order, error)
}

// CancelTx is the persistence slice cancelOrder needs: lock the order,
// lock its product, return the stock, mark the order cancelled. The
// webhook processor's transaction type also implements this — structural
// typing lets CancelPendingOrderTx run against either.
type CancelTx interface {
	LockOrder(ctx context.Context, orderID int64) (db.Order, error)
	LockProduct(ctx context.Context, productID int64) (db.Product, error)
	SetProductStock(ctx context.Context, productID int64, stock int) error
	SetOrderStatus(ctx context.Context, orderID int64, status db.OrderStatus, paidAt *time.Time) error
}

// Invalidator forgets a product's cache entry after a committed mutation.
type Invalidator interface {
	Forget(ctx context.Context, productID int64) error
}
