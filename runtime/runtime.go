// Package runtime implements the versioned object contract that generated
// clients delegate to: identifier allocation, atomic creation, loading, and
// compare-and-swap updates and deletes.
//
// Every function reports store failures as *casgen.StorageError and never
// retries. A conditional write that matches no row is reported as a
// *casgen.ConflictError of kind casgen.StaleVersion.
package runtime

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/syssam/casgen"
	"github.com/syssam/casgen/dialect"
	dsql "github.com/syssam/casgen/dialect/sql"
	"github.com/syssam/casgen/dialect/sql/schema"
	"github.com/syssam/casgen/dialect/sql/sqlgraph"
	"github.com/syssam/casgen/schema/field"
)

// Scanner is implemented by the rows handed to Scan callbacks.
type Scanner interface {
	Scan(dest ...any) error
}

// ConflictRecorder is implemented by drivers that count rejected
// conditional writes, such as dialect/sql.StatsDriver.
type ConflictRecorder interface {
	RecordConflict(entity string)
}

// ColumnType returns the column type storing attributes of the given type.
func ColumnType(t field.Type) string {
	return schema.ColumnType(t)
}

// NextID increments and returns the identifier counter of the entity. The
// increment is a single statement, so concurrent callers never observe the
// same value. Run it inside the transaction that inserts the row.
func NextID(ctx context.Context, ex dialect.ExecQuerier, entity string) (uint64, error) {
	var id uint64
	err := queryOne(ctx, ex, schema.NextIDStmt, []any{entity}, func(s Scanner) error {
		return s.Scan(&id)
	})
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, casgen.NewInvariantError(entity, "allocate id", "counter returned no value")
	case err != nil:
		return 0, wrap(entity, "allocate id", err)
	}
	return id, nil
}

// Create allocates an identifier for the entity and inserts its row in one
// transaction. args receives the allocated id and returns the arguments of
// the insert statement. If the insert fails the counter increment is rolled
// back with it.
func Create(ctx context.Context, drv dialect.Driver, entity, insert string, args func(id uint64) []any) (uint64, error) {
	var id uint64
	err := WithTx(ctx, drv, func(tx dialect.Tx) error {
		var err error
		if id, err = NextID(ctx, tx, entity); err != nil {
			return err
		}
		if err := tx.Exec(ctx, insert, args(id), nil); err != nil {
			return wrap(entity, "create", err)
		}
		return nil
	})
	if err != nil {
		return 0, wrap(entity, "create", err)
	}
	return id, nil
}

// CreateBulk creates n rows of the entity in one transaction. args receives
// the index of the row and its allocated id. Either every row is created or
// none is, and the returned ids follow the row order.
func CreateBulk(ctx context.Context, drv dialect.Driver, entity, insert string, n int, args func(i int, id uint64) []any) ([]uint64, error) {
	if n == 0 {
		return nil, nil
	}
	ids := make([]uint64, n)
	err := WithTx(ctx, drv, func(tx dialect.Tx) error {
		for i := range ids {
			id, err := NextID(ctx, tx, entity)
			if err != nil {
				return err
			}
			if err := tx.Exec(ctx, insert, args(i, id), nil); err != nil {
				return wrap(entity, "create", fmt.Errorf("row %d: %w", i, err))
			}
			ids[i] = id
		}
		return nil
	})
	if err != nil {
		return nil, wrap(entity, "create", err)
	}
	return ids, nil
}

// CompareAndSwap runs a conditional update of the row with the given id and
// version. The query must match the row only if its version equals
// version, and args must end with id and version.
func CompareAndSwap(ctx context.Context, ex dialect.ExecQuerier, entity, op string, id, version uint64, query string, args []any) error {
	return conditional(ctx, ex, entity, op, id, version, query, args)
}

// CompareAndDelete deletes the row with the given id if its version still
// equals version.
func CompareAndDelete(ctx context.Context, ex dialect.ExecQuerier, entity string, id, version uint64, query string) error {
	return conditional(ctx, ex, entity, "delete", id, version, query, []any{id, version})
}

func conditional(ctx context.Context, ex dialect.ExecQuerier, entity, op string, id, version uint64, query string, args []any) error {
	var res sql.Result
	if err := ex.Exec(ctx, query, args, &res); err != nil {
		return wrap(entity, op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrap(entity, op, err)
	}
	switch {
	case n == 1:
		return nil
	case n == 0:
		if r, ok := ex.(ConflictRecorder); ok {
			r.RecordConflict(entity)
		}
		return casgen.NewStaleVersionError(entity, op, id, version)
	default:
		return casgen.NewInvariantError(entity, op, "%d rows affected for id %d", n, id)
	}
}

// Load runs a query expected to return at most one row and scans it into
// dest. It returns a *casgen.NotFoundError if no row matches.
func Load(ctx context.Context, ex dialect.ExecQuerier, entity string, id any, query string, args []any, dest ...any) error {
	err := queryOne(ctx, ex, query, args, func(s Scanner) error {
		return s.Scan(dest...)
	})
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return casgen.NewNotFoundError(entity, id)
	case errors.Is(err, errManyRows):
		return casgen.NewInvariantError(entity, "load", "several rows match %v", id)
	case err != nil:
		return wrap(entity, "load", err)
	}
	return nil
}

// Scan runs a query and calls fn for every returned row.
func Scan(ctx context.Context, ex dialect.ExecQuerier, entity, query string, args []any, fn func(Scanner) error) error {
	rows := &dsql.Rows{}
	if err := ex.Query(ctx, query, args, rows); err != nil {
		return wrap(entity, "query", err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return wrap(entity, "query", err)
		}
	}
	if err := rows.Err(); err != nil {
		return wrap(entity, "query", err)
	}
	return nil
}

// Count runs a query returning a single integer.
func Count(ctx context.Context, ex dialect.ExecQuerier, entity, query string) (int, error) {
	var n int
	err := queryOne(ctx, ex, query, []any{}, func(s Scanner) error {
		return s.Scan(&n)
	})
	if err != nil {
		return 0, wrap(entity, "count", err)
	}
	return n, nil
}

// Install runs the install statements in one transaction.
func Install(ctx context.Context, drv dialect.Driver, stmts []string) error {
	err := WithTx(ctx, drv, func(tx dialect.Tx) error {
		for _, stmt := range stmts {
			if err := tx.Exec(ctx, stmt, []any{}, nil); err != nil {
				return fmt.Errorf("%w: %s", err, stmt)
			}
		}
		return nil
	})
	if err != nil {
		return wrap("", "install", err)
	}
	return nil
}

var errManyRows = errors.New("runtime: query returned more than one row")

func queryOne(ctx context.Context, ex dialect.ExecQuerier, query string, args []any, fn func(Scanner) error) error {
	rows := &dsql.Rows{}
	if err := ex.Query(ctx, query, args, rows); err != nil {
		return err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return sql.ErrNoRows
	}
	if err := fn(rows); err != nil {
		return err
	}
	if rows.Next() {
		return errManyRows
	}
	return rows.Err()
}

// wrap reports err as a storage failure unless it already belongs to the
// casgen error taxonomy.
func wrap(entity, op string, err error) error {
	var (
		se *casgen.StorageError
		ce *casgen.ConflictError
		ne *casgen.NotFoundError
		ve *casgen.ValidationError
	)
	if errors.As(err, &se) || errors.As(err, &ce) || errors.As(err, &ne) || errors.As(err, &ve) {
		return err
	}
	return casgen.NewStorageError(entity, op, sqlgraph.WrapConstraint(err))
}
