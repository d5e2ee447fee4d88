package holds

import (
	"context"

	"github.com/flashsale/checkout/internal/db"
)

// Store opens the single transaction createHold/releaseExpiredHold run in.
// The Postgres implementation (see postgres.go) wraps a *pgxpool.Pool; the
// in-memory implementation (see memory.go) backs unit tests that need no
// live database.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx StoreTx) error) error
}

// StoreTx is the narrow slice of persistence the manager needs inside one
// transaction — a consumer-defined interface so the manager never depends
// on pgx types.
type StoreTx interface {
	LockProduct(ctx context.Context, productID int64) (db.Product, error)
	SetProductStock(ctx context.Context, productID int64, stock int) error
	InsertHold(ctx context.Context, h db.Hold) (db.Hold, error)
	LockHold(ctx context.Context, holdID int64) (db.Hold, error)
	SetHoldStatus(ctx context.Context, holdID int64, status db.HoldStatus) error
}

// Invalidator forgets a product's cache entry after a committed mutation.
type Invalidator interface {
	Forget(ctx context.Context, productID int64) error
}
