package sql

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/syssam/casgen/dialect"
)

// Statement kinds, as labeled in metrics.
const (
	kindQuery = "query"
	kindExec  = "exec"
)

// DefaultSlowThreshold is the duration from which a statement is slow.
const DefaultSlowThreshold = 100 * time.Millisecond

// QueryStats counts the statements run through a StatsDriver.
type QueryStats struct {
	queries   atomic.Int64
	execs     atomic.Int64
	duration  atomic.Int64 // nanoseconds
	slow      atomic.Int64
	errors    atomic.Int64
	conflicts atomic.Int64
}

// Stats returns a snapshot of the counters.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalQueries:  s.queries.Load(),
		TotalExecs:    s.execs.Load(),
		TotalDuration: time.Duration(s.duration.Load()),
		SlowQueries:   s.slow.Load(),
		Errors:        s.errors.Load(),
		Conflicts:     s.conflicts.Load(),
	}
}

// Reset sets all counters to zero.
func (s *QueryStats) Reset() {
	for _, c := range []*atomic.Int64{&s.queries, &s.execs, &s.duration, &s.slow, &s.errors, &s.conflicts} {
		c.Store(0)
	}
}

// StatsSnapshot is a point-in-time copy of QueryStats.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalExecs    int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
	// Conflicts counts conditional writes rejected with a stale version.
	Conflicts int64
}

// AvgQueryDuration returns the average statement duration.
func (s StatsSnapshot) AvgQueryDuration() time.Duration {
	total := s.TotalQueries + s.TotalExecs
	if total == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(total)
}

func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d duration=%s avg=%s slow=%d errors=%d conflicts=%d",
		s.TotalQueries, s.TotalExecs, s.TotalDuration, s.AvgQueryDuration(),
		s.SlowQueries, s.Errors, s.Conflicts,
	)
}

// SlowQueryHook is called for every statement slower than the threshold.
type SlowQueryHook func(ctx context.Context, query string, args []any, duration time.Duration)

// StatsDriver counts the statements and version conflicts of a Driver,
// and optionally exports them to Prometheus.
type StatsDriver struct {
	dialect.Driver
	stats     *QueryStats
	metrics   *Metrics
	threshold time.Duration
	onSlow    SlowQueryHook
}

// StatsOption configures a StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the duration from which a statement is slow.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.threshold = d
	}
}

// WithSlowQueryHook sets the hook called for slow statements.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) {
		s.onSlow = hook
	}
}

// WithSlowQueryLog logs slow statements to slog.Default().
func WithSlowQueryLog() StatsOption {
	return WithSlowQueryHook(func(ctx context.Context, query string, args []any, duration time.Duration) {
		slog.WarnContext(ctx, "slow statement", "duration", duration, "query", query, "args", len(args))
	})
}

// WithMetrics exports the statistics to the given collectors.
func WithMetrics(m *Metrics) StatsOption {
	return func(s *StatsDriver) {
		s.metrics = m
	}
}

// NewStatsDriver wraps drv with statistics collection.
//
//	drv, _ := sql.Open(dialect.SQLite, dsn)
//	stats := sql.NewStatsDriver(drv, sql.WithSlowQueryLog())
//	client := store.NewClient(stats)
//	defer func() { log.Println(stats.QueryStats().Stats()) }()
func NewStatsDriver(drv dialect.Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{
		Driver:    drv,
		stats:     &QueryStats{},
		threshold: DefaultSlowThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the counters of the driver.
func (d *StatsDriver) QueryStats() *QueryStats {
	return d.stats
}

// SlowThreshold returns the duration from which a statement is slow.
func (d *StatsDriver) SlowThreshold() time.Duration {
	return d.threshold
}

func (d *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	return d.observe(ctx, kindQuery, query, args, func() error {
		return d.Driver.Query(ctx, query, args, v)
	})
}

func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	return d.observe(ctx, kindExec, query, args, func() error {
		return d.Driver.Exec(ctx, query, args, v)
	})
}

// RecordConflict counts a conditional write on entity rejected with a stale
// version. The runtime package calls it.
func (d *StatsDriver) RecordConflict(entity string) {
	d.stats.conflicts.Add(1)
	if d.metrics != nil {
		d.metrics.Conflicts.WithLabelValues(entity).Inc()
	}
}

// Tx starts a transaction whose statements are counted on d.
func (d *StatsDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsTx{Tx: tx, driver: d}, nil
}

func (d *StatsDriver) observe(ctx context.Context, kind, query string, args any, run func() error) error {
	start := time.Now()
	err := run()
	elapsed := time.Since(start)

	if kind == kindQuery {
		d.stats.queries.Add(1)
	} else {
		d.stats.execs.Add(1)
	}
	d.stats.duration.Add(int64(elapsed))
	if err != nil {
		d.stats.errors.Add(1)
	}
	if d.metrics != nil {
		d.metrics.observe(kind, elapsed, err)
	}
	if elapsed >= d.threshold {
		d.stats.slow.Add(1)
		if d.onSlow != nil {
			argv, _ := args.([]any)
			d.onSlow(ctx, query, argv, elapsed)
		}
	}
	return err
}

// StatsTx is a transaction of a StatsDriver.
type StatsTx struct {
	dialect.Tx
	driver *StatsDriver
}

func (tx *StatsTx) Query(ctx context.Context, query string, args, v any) error {
	return tx.driver.observe(ctx, kindQuery, query, args, func() error {
		return tx.Tx.Query(ctx, query, args, v)
	})
}

func (tx *StatsTx) Exec(ctx context.Context, query string, args, v any) error {
	return tx.driver.observe(ctx, kindExec, query, args, func() error {
		return tx.Tx.Exec(ctx, query, args, v)
	})
}

// RecordConflict counts the conflict on the driver of the transaction.
func (tx *StatsTx) RecordConflict(entity string) {
	tx.driver.RecordConflict(entity)
}

// DebugDriver logs every statement of a Driver at debug level.
type DebugDriver struct {
	dialect.Driver
	log *slog.Logger
}

// NewDebugDriver wraps drv with debug logging. A nil logger means
// slog.Default().
func NewDebugDriver(drv dialect.Driver, log *slog.Logger) *DebugDriver {
	if log == nil {
		log = slog.Default()
	}
	return &DebugDriver{Driver: drv, log: log}
}

func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	d.log.DebugContext(ctx, kindQuery, "sql", query, "args", args)
	return d.Driver.Query(ctx, query, args, v)
}

func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	d.log.DebugContext(ctx, kindExec, "sql", query, "args", args)
	return d.Driver.Exec(ctx, query, args, v)
}

// Tx starts a transaction whose statements are logged.
func (d *DebugDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	d.log.DebugContext(ctx, "begin transaction")
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &DebugTx{Tx: tx, log: d.log}, nil
}

// DebugTx is a transaction of a DebugDriver.
type DebugTx struct {
	dialect.Tx
	log *slog.Logger
}

func (tx *DebugTx) Query(ctx context.Context, query string, args, v any) error {
	tx.log.DebugContext(ctx, "tx "+kindQuery, "sql", query, "args", args)
	return tx.Tx.Query(ctx, query, args, v)
}

func (tx *DebugTx) Exec(ctx context.Context, query string, args, v any) error {
	tx.log.DebugContext(ctx, "tx "+kindExec, "sql", query, "args", args)
	return tx.Tx.Exec(ctx, query, args, v)
}

func (tx *DebugTx) Commit() error {
	tx.log.Debug("commit transaction")
	return tx.Tx.Commit()
}

func (tx *DebugTx) Rollback() error {
	tx.log.Debug("rollback transaction")
	return tx.Tx.Rollback()
}

var (
	_ dialect.Driver = (*StatsDriver)(nil)
	_ dialect.Tx     = (*StatsTx)(nil)
	_ dialect.Driver = (*DebugDriver)(nil)
	_ dialect.Tx     = (*DebugTx)(nil)
)
