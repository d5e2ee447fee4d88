package db

import (
	"context"
	"time"
)

// InsertOrder creates a new order for a hold. The UNIQUE constraint on
// hold_id is the authoritative defence against two concurrent callers both
// passing the manager's pre-checks; a duplicate-key error here is mapped
// by the caller (see db.IsUniqueViolation) to HoldAlreadyUsed.
func (q *Queries) InsertOrder(ctx context.Context, o Order) (Order, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders (hold_id, product_id, quantity, total_price, status, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, hold_id, product_id, quantity, total_price, status, paid_at, created_at`,
		o.HoldID, o.ProductID, o.Quantity, o.TotalPrice, o.Status, o.PaidAt)
	return scanOrder(row)
}

// GetOrder reads an order without taking a lock.
func (q *Queries) GetOrder(ctx context.Context, id int64) (Order, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, hold_id, product_id, quantity, total_price, status, paid_at, created_at
		FROM orders
		WHERE id = $1`, id)
	return scanOrder(row)
}

// LockOrderForUpdate reads an order and holds its row lock for the
// remainder of the caller's transaction.
func (q *Queries) LockOrderForUpdate(ctx context.Context, id int64) (Order, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, hold_id, product_id, quantity, total_price, status, paid_at, created_at
		FROM orders
		WHERE id = $1
		FOR UPDATE`, id)
	return scanOrder(row)
}

// SetOrderStatus transitions an order to paid or cancelled. paidAt is
// non-nil only for the paid transition. Callers must already hold the row
// lock within the same transaction.
func (q *Queries) SetOrderStatus(ctx context.Context, id int64, status OrderStatus, paidAt *time.Time) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE orders SET status = $1, paid_at = $2 WHERE id = $3`, status, paidAt, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

func scanOrder(row rowScanner) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.HoldID, &o.ProductID, &o.Quantity, &o.TotalPrice, &o.Status, &o.PaidAt, &o.CreatedAt)
	if err != nil {
		return Order{}, err
	}
	return o, nil
}
