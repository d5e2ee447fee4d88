package holds

import (
	"context"
	"errors"

	"github.com/flashsale/checkout/internal/apperr"
	"github.com/flashsale/checkout/internal/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the production Store: a fresh pgx.Tx opened at
// Serializable, bound to a db.Queries, rolled back on any error.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx StoreTx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(ctx, &postgresStoreTx{q: db.New(tx)}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	committed = true
	return nil
}

type postgresStoreTx struct {
	q *db.Queries
}

func (t *postgresStoreTx) LockProduct(ctx context.Context, productID int64) (db.Product, error) {
	p, err := t.q.LockProductForUpdate(ctx, productID)
	if errors.Is(err, pgx.ErrNoRows) {
		return db.Product{}, apperr.ErrProductNotFound
	}
	return p, err
}

func (t *postgresStoreTx) SetProductStock(ctx context.Context, productID int64, stock int) error {
	return t.q.SetProductStock(ctx, productID, stock)
}

func (t *postgresStoreTx) InsertHold(ctx context.Context, h db.Hold) (db.Hold, error) {
	return t.q.InsertHold(ctx, h)
}

func (t *postgresStoreTx) LockHold(ctx context.Context, holdID int64) (db.Hold, error) {
	h, err := t.q.LockHoldForUpdate(ctx, holdID)
	if errors.Is(err, pgx.ErrNoRows) {
		return db.Hold{}, apperr.ErrHoldNotFound
	}
	return h, err
}

func (t *postgresStoreTx) SetHoldStatus(ctx context.Context, holdID int64, status db.HoldStatus) error {
	return t.q.SetHoldStatus(ctx, holdID, status)
}
