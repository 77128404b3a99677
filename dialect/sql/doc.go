// Package sql provides the database/sql backed implementation of
// dialect.Driver used by generated clients.
//
// # Opening a store
//
//	import (
//	    _ "modernc.org/sqlite"
//
//	    "github.com/syssam/casgen/dialect"
//	    "github.com/syssam/casgen/dialect/sql"
//	)
//
//	drv, err := sql.Open(dialect.SQLite, "file:app.db?_pragma=foreign_keys(1)")
//
// # Statistics and metrics
//
// StatsDriver counts statements, errors, slow statements and rejected
// conditional writes. With WithMetrics the same numbers are exported to
// Prometheus:
//
//	m, err := sql.NewMetrics("app", prometheus.DefaultRegisterer)
//	drv := sql.NewStatsDriver(base, sql.WithMetrics(m), sql.WithSlowQueryLog())
//
// DebugDriver logs every statement at debug level through log/slog.
package sql
