package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the unit-of-work handle repositories execute against. Both
// *pgxpool.Pool and pgx.Tx satisfy it, so the same repository method serves
// plain reads and transactional mutations. The handle is passed explicitly
// per call rather than smuggled through context.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxRunner runs a function inside one atomic unit of work. Services depend
// on this interface so tests can substitute an in-memory runner.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(q Querier) error) error
}

// WithTx begins a transaction, runs fn with it, and commits. Any error from
// fn (or the commit) rolls the whole unit of work back.
func (db *DB) WithTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Ensure *DB satisfies TxRunner at compile time.
var _ TxRunner = (*DB)(nil)
