package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ctxKey string

const (
	txKey   ctxKey = "db_tx"
	connKey ctxKey = "db_conn"
)

// TxFromContext returns the transaction carried by ctx, or nil. Repositories
// check this first so that multi-write service operations run on the same
// transaction.
func TxFromContext(ctx context.Context) pgx.Tx {
	if tx, ok := ctx.Value(txKey).(pgx.Tx); ok {
		return tx
	}
	return nil
}

// ConnFromContext returns a dedicated connection carried by ctx, or nil.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	if c, ok := ctx.Value(connKey).(*pgxpool.Conn); ok {
		return c
	}
	return nil
}

// WithConn stores a dedicated connection in the context.
func WithConn(ctx context.Context, conn *pgxpool.Conn) context.Context {
	return context.WithValue(ctx, connKey, conn)
}

// WithTx begins a transaction on pool, stores it in the context passed to fn,
// and commits if fn returns nil. Any error from fn rolls the transaction back
// and is returned unchanged so callers can still inspect it with errors.Is.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	if tx := TxFromContext(ctx); tx != nil {
		// Already inside a transaction; run fn on it.
		return fn(ctx)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
