package db

import (
	"context"
	"database/sql"
	"fmt"
)

// TxRunner runs a function inside a single database transaction. Services depend on this
// interface so unit tests can substitute a runner that calls fn with a nil tx.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// SQLRunner implements TxRunner over a *sql.DB.
type SQLRunner struct {
	DB *sql.DB
}

// InTx begins a transaction, runs fn, and commits. If fn returns an error the transaction
// is rolled back and the error is returned unchanged so sentinel errors survive.
func (r SQLRunner) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
