package runtime

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/syssam/casgen"
	"github.com/syssam/casgen/dialect"
)

// WithTx runs fn in a transaction of drv. The transaction is committed if fn
// returns nil and rolled back otherwise, including when fn panics.
func WithTx(ctx context.Context, drv dialect.Driver, fn func(tx dialect.Tx) error) error {
	tx, err := drv.Tx(ctx)
	if err != nil {
		return wrap("", "begin transaction", err)
	}
	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback()
			panic(v)
		}
	}()
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return &casgen.RollbackError{Err: err, Rollback: rerr}
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return wrap("", "commit transaction", err)
	}
	return nil
}

// TxDriver returns a driver running every statement in tx. Transactions
// started from the returned driver are savepoints of tx, so clients bound
// to it keep creating rows atomically.
func TxDriver(tx dialect.Tx, name string) dialect.Driver {
	return &txDriver{tx: tx, dialect: name, seq: new(atomic.Uint64)}
}

type txDriver struct {
	tx      dialect.Tx
	dialect string
	seq     *atomic.Uint64
}

func (d *txDriver) Exec(ctx context.Context, query string, args, v any) error {
	return d.tx.Exec(ctx, query, args, v)
}

func (d *txDriver) Query(ctx context.Context, query string, args, v any) error {
	return d.tx.Query(ctx, query, args, v)
}

// Tx opens a savepoint.
func (d *txDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	name := fmt.Sprintf("casgen_%d", d.seq.Add(1))
	if err := d.tx.Exec(ctx, "SAVEPOINT "+name, []any{}, nil); err != nil {
		return nil, err
	}
	return &savepoint{ctx: ctx, name: name, driver: d}, nil
}

// Close is a no-op. The transaction is closed by its owner.
func (d *txDriver) Close() error { return nil }

func (d *txDriver) Dialect() string { return d.dialect }

func (d *txDriver) RecordConflict(entity string) {
	if r, ok := d.tx.(ConflictRecorder); ok {
		r.RecordConflict(entity)
	}
}

type savepoint struct {
	ctx    context.Context
	name   string
	driver *txDriver
}

func (s *savepoint) Exec(ctx context.Context, query string, args, v any) error {
	return s.driver.Exec(ctx, query, args, v)
}

func (s *savepoint) Query(ctx context.Context, query string, args, v any) error {
	return s.driver.Query(ctx, query, args, v)
}

func (s *savepoint) Commit() error {
	return s.driver.tx.Exec(s.ctx, "RELEASE SAVEPOINT "+s.name, []any{}, nil)
}

// Rollback undoes the statements of the savepoint and removes it from the
// transaction stack.
func (s *savepoint) Rollback() error {
	if err := s.driver.tx.Exec(s.ctx, "ROLLBACK TO SAVEPOINT "+s.name, []any{}, nil); err != nil {
		return err
	}
	return s.driver.tx.Exec(s.ctx, "RELEASE SAVEPOINT "+s.name, []any{}, nil)
}

func (s *savepoint) RecordConflict(entity string) {
	s.driver.RecordConflict(entity)
}

var (
	_ dialect.Driver   = (*txDriver)(nil)
	_ dialect.Tx       = (*savepoint)(nil)
	_ ConflictRecorder = (*savepoint)(nil)
)
