package orders

import (
	"context"

	"github.com/flashsale/checkout/internal/db"
)

// CancelPendingOrderTx is the body of CancelOrder, factored out so the
// webhook processor's failure path can run the identical algorithm inside
// its own transaction without sharing a transaction type across packages.
// tx only needs to satisfy CancelTx; both orders.StoreTx and
// webhooks.StoreTx do.
//
// Idempotent precondition: only a pending order is mutated. Any other
// status returns (order, false, nil) with no effect.
func CancelPendingOrderTx(ctx context.Context, tx CancelTx, orderID int64) (db.Order, bool, error) {
	order, err := tx.LockOrder(ctx, orderID)
	if err != nil {
		return db.Order{}, false, err
	}

	if order.Status != db.OrderPending {
		return order, false, nil
	}

	product, err := tx.LockProduct(ctx, order.ProductID)
	if err != nil {
		return db.Order{}, false, err
	}

	if err := tx.SetProductStock(ctx, product.ID, product.Stock+order.Quantity); err != nil {
		return db.Order{}, false, err
	}

	if err := tx.SetOrderStatus(ctx, orderID, db.OrderCancelled, nil); err != nil {
		return db.Order{}, false, err
	}

	order.Status = db.OrderCancelled
	return order, true, nil
}
