package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// queryer is the part of *sql.DB and *sql.Tx the repositories read through.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// snapshotRead is for multi-statement reads that must agree with each other.
var snapshotRead = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

// withTx runs fn in a transaction, committing when fn succeeds and rolling
// back otherwise. Panics roll back and are rethrown.
func withTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(q queryer) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("commit tx: %w", cerr)
		}
	}()
	return fn(tx)
}
