package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TxRunner runs a function atomically. Services depend on this rather than on
// the pool so that tests can substitute a passthrough.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type poolTxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner returns a TxRunner backed by the connection pool.
func NewTxRunner(pool *pgxpool.Pool) TxRunner {
	return poolTxRunner{pool: pool}
}

func (r poolTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return WithTx(ctx, r.pool, fn)
}
