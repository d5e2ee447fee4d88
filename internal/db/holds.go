package db

import (
	"context"
	"time"
)

// InsertHold creates a new hold row, inside the same transaction that
// decremented the product's stock.
func (q *Queries) InsertHold(ctx context.Context, h Hold) (Hold, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO holds (product_id, quantity, status, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, product_id, quantity, status, expires_at, created_at`,
		h.ProductID, h.Quantity, h.Status, h.ExpiresAt)
	return scanHold(row)
}

// GetHold reads a hold without taking a lock. Used by the HTTP layer's
// pre-transaction existence check for a hold_id referenced in a request
// body.
func (q *Queries) GetHold(ctx context.Context, id int64) (Hold, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, product_id, quantity, status, expires_at, created_at
		FROM holds
		WHERE id = $1`, id)
	return scanHold(row)
}

// LockHoldForUpdate reads a hold and holds its row lock for the remainder
// of the caller's transaction.
func (q *Queries) LockHoldForUpdate(ctx context.Context, id int64) (Hold, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, product_id, quantity, status, expires_at, created_at
		FROM holds
		WHERE id = $1
		FOR UPDATE`, id)
	return scanHold(row)
}

// SetHoldStatus transitions a hold to a terminal or active status. Callers
// must already hold the row lock within the same transaction.
func (q *Queries) SetHoldStatus(ctx context.Context, id int64, status HoldStatus) error {
	tag, err := q.db.Exec(ctx, `UPDATE holds SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// ExpiredHoldIDs returns the ids of every active hold whose expiry has
// passed as of before. Unlocked — the sweeper re-checks status under lock
// per hold in a separate, short transaction.
func (q *Queries) ExpiredHoldIDs(ctx context.Context, before time.Time) ([]int64, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id FROM holds WHERE status = $1 AND expires_at < $2`, HoldActive, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanHold(row rowScanner) (Hold, error) {
	var h Hold
	err := row.Scan(&h.ID, &h.ProductID, &h.Quantity, &h.Status, &h.ExpiresAt, &h.CreatedAt)
	if err != nil {
		return Hold{}, err
	}
	return h, nil
}
