package webhooks

import (
	"context"
	"errors"
	"time"

	"github.com/flashsale/checkout/internal/apperr"
	"github.com/flashsale/checkout/internal/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) LookupByKey(ctx context.Context, idempotencyKey string) (db.WebhookLog, bool, error) {
	q := db.New(s.pool)
	log, err := q.GetWebhookLogByKey(ctx, idempotencyKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return db.WebhookLog{}, false, nil
	}
	if err != nil {
		return db.WebhookLog{}, false, err
	}
	return log, true, nil
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

func (t *postgresStoreTx) InsertWebhookLog(ctx context.Context, w db.WebhookLog) (db.WebhookLog, error) {
	log, err := t.q.InsertWebhookLog(ctx, w)
	if db.IsUniqueViolation(err) {
		return db.WebhookLog{}, apperr.ErrWebhookAlreadyProcessed
	}
	return log, err
}

func (t *postgresStoreTx) GetOrder(ctx context.Context, orderID int64) (db.Order, bool, error) {
	order, err := t.q.GetOrder(ctx, orderID)
	if errors.Is(err, pgx.ErrNoRows) {
		return db.Order{}, false, nil
	}
	return order, err == nil, err
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
