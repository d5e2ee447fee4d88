// Package db is the hand-written query layer over PostgreSQL: a DBTX
// interface satisfied by both *pgxpool.Pool and pgx.Tx, and a Queries
// struct bound to whichever one the caller passes to New, so the same
// query methods run either as a one-off read against the pool or as a step
// inside a transaction opened by the caller.
package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// rowScanner is the common slice of pgx.Row used by the scan helpers below;
// satisfied by both pgx.Row and pgx.Rows mid-iteration.
type rowScanner interface {
	Scan(dest ...any) error
}

// ErrNoRows is returned by the update helpers when the targeted row does
// not exist — it should never happen for a row the caller just locked.
var ErrNoRows = pgx.ErrNoRows

// Queries is the generated-style query object. Construct one bound to the
// pool for reads outside a transaction, or bound to a pgx.Tx for every
// step of a transactional operation.
type Queries struct {
	db DBTX
}

// New returns a Queries bound to dbtx.
func New(dbtx DBTX) *Queries {
	return &Queries{db: dbtx}
}

// IsUniqueViolation reports whether err is a Postgres unique_violation
// (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// IsSerializationFailure reports whether err is a Postgres serialization
// failure or deadlock (40001/40P01), the transient codes callers may
// retry.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
