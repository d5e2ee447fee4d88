package orders

import (
	"context"
	"errors"
	"time"

	"github.com/flashsale/checkout/internal/apperr"
	"github.com/flashsale/checkout/internal/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the production Store.
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

func (t *postgresStoreTx) InsertOrder(ctx context.Context, o db.Order) (db.Order, error) {
	order, err := t.q.InsertOrder(ctx, o)
	if db.IsUniqueViolation(err) {
		return db.Order{}, apperr.ErrHoldAlreadyUsed
	}
	return order, err
}

func (t *postgresStoreTx) LockOrder(ctx context.Context, orderID int64) (db.Order, error) {
	o, err := t.q.LockOrderForUpdate(ctx, orderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return db.Order{}, apperr.ErrOrderNotFound
	}
	return o, err
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

func (t *postgresStoreTx) SetOrderStatus(ctx context.Context, orderID int64, status db.OrderStatus, paidAt *time.Time) error {
	return t.q.SetOrderStatus(ctx, orderID, status, paidAt)
}
