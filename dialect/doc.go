// Package dialect defines the store driver abstraction used by the runtime
// package and by generated clients.
//
// # Driver Interface
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// Exec accepts a *sql.Result destination (or nil) and Query a *sql.Rows
// destination, both from dialect/sql. Arguments are always passed as []any.
//
// # Transaction Interface
//
//	type Tx interface {
//	    ExecQuerier
//	    Commit() error
//	    Rollback() error
//	}
//
// The only supported store is SQLite, through modernc.org/sqlite:
//
//	drv, err := sql.Open(dialect.SQLite, "file:app.db?_pragma=foreign_keys(1)")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
// # Sub-packages
//
//   - dialect/sql: database/sql backed driver, statistics and metrics
//   - dialect/sql/schema: table shapes, statements and install DDL
//   - dialect/sql/sqlgraph: classification of driver errors
package dialect
