package db

import (
	"context"
	"database/sql"

	"tracker-service/common/metrics"

	"github.com/uptrace/bun"
)

// TxRunner runs fn inside a transaction. Repositories called with the ctx
// passed to fn take part in that transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

type txRunner struct {
	db      *bun.DB
	metrics *metrics.Metrics
}

func NewTxRunner(db *bun.DB, m *metrics.Metrics) TxRunner {
	return &txRunner{db: db, metrics: m}
}

func (r *txRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(bun.Tx); ok {
		return fn(ctx)
	}

	err := r.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})

	if r.metrics != nil {
		r.metrics.Database.RecordTransaction(ctx, err)
	}
	return err
}

// Conn returns the transaction bound to ctx, or fallback outside one.
func Conn(ctx context.Context, fallback bun.IDB) bun.IDB {
	if tx, ok := ctx.Value(txKey{}).(bun.Tx); ok {
		return tx
	}
	return fallback
}
