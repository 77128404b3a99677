package runtime

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/casgen"
	"github.com/syssam/casgen/dialect"
	dsql "github.com/syssam/casgen/dialect/sql"
	"github.com/syssam/casgen/dialect/sql/schema"
	"github.com/syssam/casgen/schema/field"
)

const (
	insertStmt  = "INSERT INTO `accounts` (`id`, `version`, `balance`, `owner`) VALUES (?, ?, ?, ?)"
	selectStmt  = "SELECT `id`, `version`, `balance`, `owner` FROM `accounts` WHERE `id` = ?"
	updateStmt  = "UPDATE `accounts` SET `balance` = ?, `version` = `version` + 1 WHERE `id` = ? AND `version` = ?"
	deleteStmt  = "DELETE FROM `accounts` WHERE `id` = ? AND `version` = ?"
	countStmt   = "SELECT COUNT(*) FROM `accounts`"
	nextIDQuery = schema.NextIDStmt
)

func mockDriver(t *testing.T) (*dsql.Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return dsql.OpenDB(dialect.SQLite, db), mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func TestColumnType(t *testing.T) {
	assert.Equal(t, "integer", ColumnType(field.TypeInt))
	assert.Equal(t, "smallint", ColumnType(field.TypeBool))
}

func TestNextID(t *testing.T) {
	drv, mock := mockDriver(t)
	mock.ExpectQuery(q(nextIDQuery)).WithArgs("account").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(7))

	id, err := NextID(context.Background(), drv, "account")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNextID_Errors(t *testing.T) {
	drv, mock := mockDriver(t)
	mock.ExpectQuery(q(nextIDQuery)).WillReturnError(errors.New("no such table: casgen_sequences"))
	_, err := NextID(context.Background(), drv, "account")
	require.True(t, casgen.IsStorageError(err))
	assert.ErrorContains(t, err, "no such table")

	mock.ExpectQuery(q(nextIDQuery)).WillReturnRows(sqlmock.NewRows([]string{"value"}))
	_, err = NextID(context.Background(), drv, "account")
	require.ErrorIs(t, err, casgen.ErrInvariant)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate(t *testing.T) {
	drv, mock := mockDriver(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q(nextIDQuery)).WithArgs("account").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(1))
	mock.ExpectExec(q(insertStmt)).WithArgs(1, casgen.InitialVersion, 100, "a").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	id, err := Create(context.Background(), drv, "account", insertStmt, func(id uint64) []any {
		return []any{id, casgen.InitialVersion, int64(100), "a"}
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_RollbackOnInsertFailure(t *testing.T) {
	drv, mock := mockDriver(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q(nextIDQuery)).WithArgs("user").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(2))
	mock.ExpectExec(q(insertStmt)).
		WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"))
	mock.ExpectRollback()

	_, err := Create(context.Background(), drv, "user", insertStmt, func(id uint64) []any {
		return []any{id, casgen.InitialVersion, int64(1), "a@example.com"}
	})
	require.Error(t, err)
	var se *casgen.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, casgen.Constraint, se.Kind)
	assert.Equal(t, "user", se.Entity)
	assert.True(t, casgen.IsConstraintError(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_RollbackFailure(t *testing.T) {
	drv, mock := mockDriver(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q(nextIDQuery)).WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback().WillReturnError(errors.New("connection lost"))

	_, err := Create(context.Background(), drv, "account", insertStmt, func(uint64) []any { return nil })
	var rerr *casgen.RollbackError
	require.ErrorAs(t, err, &rerr)
	assert.True(t, casgen.IsStorageError(err))
	assert.ErrorContains(t, err, "connection lost")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_BeginFailure(t *testing.T) {
	drv, mock := mockDriver(t)
	mock.ExpectBegin().WillReturnError(errors.New("database is locked"))
	_, err := Create(context.Background(), drv, "account", insertStmt, func(uint64) []any { return nil })
	require.True(t, casgen.IsStorageError(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompareAndSwap(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		check    func(t *testing.T, err error)
	}{
		{
			name:     "applied",
			affected: 1,
			check: func(t *testing.T, err error) {
				require.NoError(t, err)
			},
		},
		{
			name:     "stale",
			affected: 0,
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, casgen.ErrStaleVersion)
				var ce *casgen.ConflictError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, uint64(3), ce.ID)
				assert.Equal(t, uint64(5), ce.Version)
				assert.Equal(t, "update balance", ce.Op)
			},
		},
		{
			name:     "invariant",
			affected: 2,
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, casgen.ErrInvariant)
				assert.False(t, casgen.IsStaleVersion(err))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drv, mock := mockDriver(t)
			mock.ExpectExec(q(updateStmt)).WithArgs(150, 3, 5).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))
			err := CompareAndSwap(context.Background(), drv, "account", "update balance", 3, 5, updateStmt, []any{int64(150), uint64(3), uint64(5)})
			tt.check(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCompareAndSwap_StorageFailure(t *testing.T) {
	drv, mock := mockDriver(t)
	mock.ExpectExec(q(updateStmt)).WillReturnError(errors.New("disk I/O error"))
	err := CompareAndSwap(context.Background(), drv, "account", "update balance", 1, 1, updateStmt, []any{int64(1), uint64(1), uint64(1)})
	var se *casgen.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, casgen.IO, se.Kind)
	assert.Equal(t, "update balance", se.Op)

	mock.ExpectExec(q(updateStmt)).WillReturnResult(sqlmock.NewErrorResult(errors.New("rows affected unsupported")))
	err = CompareAndSwap(context.Background(), drv, "account", "update balance", 1, 1, updateStmt, []any{int64(1), uint64(1), uint64(1)})
	require.True(t, casgen.IsStorageError(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompareAndSwap_RecordsConflicts(t *testing.T) {
	base, mock := mockDriver(t)
	drv := dsql.NewStatsDriver(base)
	mock.ExpectExec(q(updateStmt)).WillReturnResult(sqlmock.NewResult(0, 0))
	err := CompareAndSwap(context.Background(), drv, "account", "update balance", 1, 1, updateStmt, []any{int64(1), uint64(1), uint64(1)})
	require.True(t, casgen.IsStaleVersion(err))
	assert.Equal(t, int64(1), drv.QueryStats().Stats().Conflicts)
}

func TestCompareAndDelete(t *testing.T) {
	drv, mock := mockDriver(t)
	mock.ExpectExec(q(deleteStmt)).WithArgs(1, 2).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q(deleteStmt)).WithArgs(1, 1).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, CompareAndDelete(context.Background(), drv, "account", 1, 2, deleteStmt))
	err := CompareAndDelete(context.Background(), drv, "account", 1, 1, deleteStmt)
	require.ErrorIs(t, err, casgen.ErrStaleVersion)
	assert.Contains(t, err.Error(), "delete account")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad(t *testing.T) {
	drv, mock := mockDriver(t)
	mock.ExpectQuery(q(selectStmt)).WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "version", "balance", "owner"}).AddRow(1, 2, 150, "a"))

	var (
		id, version uint64
		balance     int64
		owner       string
	)
	err := Load(context.Background(), drv, "account", uint64(1), selectStmt, []any{uint64(1)}, &id, &version, &balance, &owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
	assert.Equal(t, uint64(2), version)
	assert.Equal(t, int64(150), balance)
	assert.Equal(t, "a", owner)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_Errors(t *testing.T) {
	drv, mock := mockDriver(t)
	columns := []string{"id", "version", "balance", "owner"}

	mock.ExpectQuery(q(selectStmt)).WillReturnRows(sqlmock.NewRows(columns))
	err := Load(context.Background(), drv, "account", uint64(9), selectStmt, []any{uint64(9)}, new(uint64), new(uint64), new(int64), new(string))
	require.True(t, casgen.IsNotFound(err))
	assert.Equal(t, "casgen: account not found (id=9)", err.Error())

	mock.ExpectQuery(q(selectStmt)).WillReturnRows(sqlmock.NewRows(columns).AddRow(1, 1, 1, "a").AddRow(1, 1, 1, "b"))
	err = Load(context.Background(), drv, "account", uint64(1), selectStmt, []any{uint64(1)}, new(uint64), new(uint64), new(int64), new(string))
	require.ErrorIs(t, err, casgen.ErrInvariant)

	mock.ExpectQuery(q(selectStmt)).WillReturnError(errors.New("disk I/O error"))
	err = Load(context.Background(), drv, "account", uint64(1), selectStmt, []any{uint64(1)}, new(uint64))
	require.True(t, casgen.IsStorageError(err))
	require.False(t, casgen.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScanAndCount(t *testing.T) {
	drv, mock := mockDriver(t)
	mock.ExpectQuery(q(countStmt)).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT .+ LIMIT").WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))

	n, err := Count(context.Background(), drv, "account", countStmt)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var ids []uint64
	err = Scan(context.Background(), drv, "account", "SELECT `id` FROM `accounts` ORDER BY `id` LIMIT ? OFFSET ?", []any{10, 0}, func(s Scanner) error {
		var id uint64
		if err := s.Scan(&id); err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, ids)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInstall(t *testing.T) {
	drv, mock := mockDriver(t)
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS `casgen_sequences`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS `accounts`").WillReturnError(errors.New("near \"(\": syntax error"))
	mock.ExpectRollback()

	err := Install(context.Background(), drv, []string{
		"CREATE TABLE IF NOT EXISTS `casgen_sequences` (`name` text NOT NULL)",
		"CREATE TABLE IF NOT EXISTS `accounts` (",
	})
	require.True(t, casgen.IsStorageError(err))
	assert.ErrorContains(t, err, "syntax error")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_Panic(t *testing.T) {
	drv, mock := mockDriver(t)
	mock.ExpectBegin()
	mock.ExpectRollback()
	assert.PanicsWithValue(t, "boom", func() {
		_ = WithTx(context.Background(), drv, func(dialect.Tx) error {
			panic("boom")
		})
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTxDriver_Savepoints(t *testing.T) {
	drv, mock := mockDriver(t)
	mock.ExpectBegin()
	mock.ExpectExec("SAVEPOINT casgen_1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q(nextIDQuery)).WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(4))
	mock.ExpectExec(q(insertStmt)).WillReturnError(errors.New("NOT NULL constraint failed: accounts.owner"))
	mock.ExpectExec("ROLLBACK TO SAVEPOINT casgen_1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("RELEASE SAVEPOINT casgen_1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("SAVEPOINT casgen_2").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q(nextIDQuery)).WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(4))
	mock.ExpectExec(q(insertStmt)).WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectExec("RELEASE SAVEPOINT casgen_2").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	tx, err := drv.Tx(context.Background())
	require.NoError(t, err)
	txd := TxDriver(tx, drv.Dialect())
	assert.Equal(t, dialect.SQLite, txd.Dialect())

	_, err = Create(context.Background(), txd, "account", insertStmt, func(id uint64) []any {
		return []any{id, casgen.InitialVersion, int64(1), nil}
	})
	require.True(t, casgen.IsConstraintError(err))

	id, err := Create(context.Background(), txd, "account", insertStmt, func(id uint64) []any {
		return []any{id, casgen.InitialVersion, int64(1), "a"}
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), id, "the rolled back allocation is not consumed")
	require.NoError(t, txd.Close())
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}
