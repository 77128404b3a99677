package sql

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/casgen/dialect"
)

func TestStatsDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var slow []string
	drv := NewStatsDriver(OpenDB(dialect.SQLite, db),
		WithSlowThreshold(0),
		WithSlowQueryHook(func(_ context.Context, query string, _ []any, _ time.Duration) {
			slow = append(slow, query)
		}),
	)

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("DELETE").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	rows := &Rows{}
	require.NoError(t, drv.Query(context.Background(), "SELECT 1", []any{}, rows))
	require.NoError(t, rows.Close())
	require.Error(t, drv.Exec(context.Background(), "DELETE FROM accounts", []any{}, nil))

	tx, err := drv.Tx(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Exec(context.Background(), "UPDATE accounts SET balance = 1", []any{}, nil))
	tx.(interface{ RecordConflict(string) }).RecordConflict("account")
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())

	s := drv.QueryStats().Stats()
	assert.Equal(t, int64(1), s.TotalQueries)
	assert.Equal(t, int64(2), s.TotalExecs)
	assert.Equal(t, int64(1), s.Errors)
	assert.Equal(t, int64(1), s.Conflicts)
	assert.Equal(t, int64(3), s.SlowQueries)
	assert.Len(t, slow, 3)
	assert.Contains(t, s.String(), "conflicts=1")

	drv.QueryStats().Reset()
	assert.Equal(t, StatsSnapshot{}, drv.QueryStats().Stats())
}

func TestStatsDriver_SlowThreshold(t *testing.T) {
	assert.Equal(t, DefaultSlowThreshold, NewStatsDriver(nil).SlowThreshold())
	assert.Equal(t, time.Second, NewStatsDriver(nil, WithSlowThreshold(time.Second)).SlowThreshold())
}

func TestStatsSnapshot_AvgQueryDuration(t *testing.T) {
	assert.Zero(t, StatsSnapshot{}.AvgQueryDuration())
	s := StatsSnapshot{TotalQueries: 2, TotalExecs: 2, TotalDuration: 4 * time.Second}
	assert.Equal(t, time.Second, s.AvgQueryDuration())
}

func TestStatsDriver_Metrics(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	reg := prometheus.NewRegistry()
	m, err := NewMetrics("casgen", reg)
	require.NoError(t, err)
	drv := NewStatsDriver(OpenDB(dialect.SQLite, db), WithMetrics(m))

	mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT").WillReturnError(errors.New("UNIQUE constraint failed"))
	require.NoError(t, drv.Exec(context.Background(), "INSERT INTO accounts", []any{}, nil))
	require.Error(t, drv.Exec(context.Background(), "INSERT INTO accounts", []any{}, nil))
	drv.RecordConflict("account")
	drv.RecordConflict("account")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Statements.WithLabelValues("exec", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Statements.WithLabelValues("exec", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Conflicts.WithLabelValues("account")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Duration))

	// A second set of metrics on the same registry reuses the collectors.
	again, err := NewMetrics("casgen", reg)
	require.NoError(t, err)
	assert.Same(t, m.Conflicts, again.Conflicts)
}

func TestDebugDriver(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	drv := NewDebugDriver(OpenDB(dialect.SQLite, db), log)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectRollback()

	tx, err := drv.Tx(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Exec(context.Background(), "INSERT INTO accounts", []any{}, nil))
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())

	out := buf.String()
	assert.Contains(t, out, "begin transaction")
	assert.Contains(t, out, `sql="INSERT INTO accounts"`)
	assert.Contains(t, out, "rollback transaction")
}
