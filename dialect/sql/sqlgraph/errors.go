// Package sqlgraph classifies errors reported by the SQLite driver.
package sqlgraph

import (
	"errors"
	"strings"

	"github.com/syssam/casgen"
)

// IsConstraintError returns true if the error resulted from a database constraint violation.
func IsConstraintError(err error) bool {
	return casgen.IsConstraintError(err) ||
		IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err) ||
		IsNotNullConstraintError(err)
}

// WrapConstraint wraps err in a casgen.ConstraintError if it reports a
// constraint violation. Other errors are returned unchanged.
func WrapConstraint(err error) error {
	if err == nil || casgen.IsConstraintError(err) || !IsConstraintError(err) {
		return err
	}
	return casgen.NewConstraintError(err.Error(), err)
}

// errorCoder is implemented by modernc.org/sqlite errors. The code is the
// extended result code of the failed call.
type errorCoder interface {
	Code() int
}

// SQLite extended result codes for constraint violations.
const (
	sqliteConstraintCheck      = 275
	sqliteConstraintForeignKey = 787
	sqliteConstraintNotNull    = 1299
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness constraint violation.
// e.g. duplicate value in unique index.
func IsUniqueConstraintError(err error) bool {
	return hasCode(err, sqliteConstraintUnique, sqliteConstraintPrimaryKey, "UNIQUE constraint failed")
}

// IsForeignKeyConstraintError reports if the error resulted from a database foreign-key constraint violation.
// e.g. parent row does not exist.
func IsForeignKeyConstraintError(err error) bool {
	return hasCode(err, sqliteConstraintForeignKey, 0, "FOREIGN KEY constraint failed")
}

// IsCheckConstraintError reports if the error resulted from a database check constraint violation.
func IsCheckConstraintError(err error) bool {
	return hasCode(err, sqliteConstraintCheck, 0, "CHECK constraint failed")
}

// IsNotNullConstraintError reports if the error resulted from writing NULL
// to a NOT NULL column.
func IsNotNullConstraintError(err error) bool {
	return hasCode(err, sqliteConstraintNotNull, 0, "NOT NULL constraint failed")
}

func hasCode(err error, code, alt int, msg string) bool {
	if err == nil {
		return false
	}
	if e, ok := asError[errorCoder](err); ok {
		if c := e.Code(); c == code || (alt != 0 && c == alt) {
			return true
		}
	}
	// Fallback to string matching for drivers that don't report extended codes.
	return strings.Contains(err.Error(), msg)
}

// asError attempts to extract an error implementing interface T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}
