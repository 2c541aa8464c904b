package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type txKey struct{}

func txFrom(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok
}

// Conn returns the transaction carried by ctx, or the pool when none is in flight.
func (p *Postgres) Conn(ctx context.Context) Querier {
	if tx, ok := txFrom(ctx); ok {
		return tx
	}
	return p.Pool
}

// InTx runs fn as one unit of work. Repositories called with the derived
// context share the transaction. A nested call joins the outer unit of work.
func (p *Postgres) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}

	tx, err := p.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Savepoint runs fn under a savepoint when a transaction is in flight, so a
// failing statement does not abort the surrounding unit of work. Outside a
// transaction fn runs directly against the pool.
func (p *Postgres) Savepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, ok := txFrom(ctx)
	if !ok {
		return fn(ctx)
	}

	sp, err := tx.Begin(ctx)
	if err != nil {
		return err
	}
	defer sp.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey{}, sp)); err != nil {
		return err
	}
	return sp.Commit(ctx)
}
