package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TxManager implements domain.TxManager on a pgx connection pool.
type TxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager creates a new TxManager.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

// WithinTx runs fn inside a single transaction. The rollback is deferred so
// any error, panic included, leaves the store untouched; commit only happens
// when fn returns nil.
func (m *TxManager) WithinTx(ctx context.Context, fn func(tx interface{}) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
