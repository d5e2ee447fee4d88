package sweeper

import (
	"context"
	"time"

	"github.com/flashsale/checkout/internal/db"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresScanner backs Scanner against the holds(status, expires_at)
// index.
type PostgresScanner struct {
	q *db.Queries
}

func NewPostgresScanner(pool *pgxpool.Pool) *PostgresScanner {
	return &PostgresScanner{q: db.New(pool)}
}

func (s *PostgresScanner) ExpiredHoldIDs(ctx context.Context, before time.Time) ([]int64, error) {
	return s.q.ExpiredHoldIDs(ctx, before)
}
