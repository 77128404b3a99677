package casgen_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/casgen"
)

func TestNotFoundError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := casgen.NewNotFoundError("account", uint64(7))
		assert.Equal(t, "casgen: account not found (id=7)", err.Error())
		assert.Equal(t, "casgen: account not found", casgen.NewNotFoundError("account", nil).Error())
	})

	t.Run("IsNotFound", func(t *testing.T) {
		err := casgen.NewNotFoundError("account", uint64(1))
		assert.True(t, errors.Is(err, casgen.ErrNotFound))
		assert.True(t, casgen.IsNotFound(err))

		// Wrapped error
		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, casgen.IsNotFound(wrapped))

		assert.False(t, casgen.IsNotFound(errors.New("other error")))
		assert.False(t, casgen.IsNotFound(nil))
		assert.False(t, casgen.IsStaleVersion(err))
	})
}

func TestConflictError(t *testing.T) {
	err := casgen.NewStaleVersionError("account", "update balance", 1, 1)
	assert.Equal(t, "casgen: update balance account (id=1, version=1): stale version", err.Error())
	assert.True(t, errors.Is(err, casgen.ErrStaleVersion))
	assert.True(t, casgen.IsStaleVersion(fmt.Errorf("wrapper: %w", err)))
	assert.False(t, casgen.IsNotFound(err))
	assert.False(t, casgen.IsStorageError(err))
	assert.False(t, casgen.IsStaleVersion(nil))

	var cerr *casgen.ConflictError
	assert.True(t, errors.As(err, &cerr))
	assert.Equal(t, casgen.StaleVersion, cerr.Kind)
}

func TestValidationError(t *testing.T) {
	cause := errors.New("negative balance")
	err := casgen.NewValidationError("account", "update balance", cause)
	assert.Equal(t, "casgen: update balance account: validation failed: negative balance", err.Error())
	assert.True(t, errors.Is(err, casgen.ErrValidation))
	assert.True(t, errors.Is(err, cause))
	assert.True(t, casgen.IsValidationError(fmt.Errorf("wrapper: %w", err)))
	assert.False(t, casgen.IsValidationError(cause))
	assert.False(t, casgen.IsValidationError(nil))
	assert.False(t, casgen.IsStorageError(err))
}

func TestStorageError(t *testing.T) {
	t.Run("IO", func(t *testing.T) {
		underlying := errors.New("disk I/O error")
		err := casgen.NewStorageError("account", "create", underlying)
		assert.Equal(t, casgen.IO, err.Kind)
		assert.Equal(t, "casgen: create account (io): disk I/O error", err.Error())
		assert.True(t, errors.Is(err, underlying))
		assert.True(t, errors.Is(err, casgen.ErrStorage))
		assert.False(t, errors.Is(err, casgen.ErrInvariant))
		assert.True(t, casgen.IsStorageError(fmt.Errorf("wrapper: %w", err)))
	})

	t.Run("Constraint", func(t *testing.T) {
		cerr := casgen.NewConstraintError("UNIQUE constraint failed: users.email", nil)
		err := casgen.NewStorageError("user", "create", cerr)
		assert.Equal(t, casgen.Constraint, err.Kind)
		assert.True(t, casgen.IsConstraintError(err))
	})

	t.Run("Invariant", func(t *testing.T) {
		err := casgen.NewInvariantError("account", "update balance", "%d rows affected", 2)
		assert.Equal(t, casgen.Invariant, err.Kind)
		assert.Equal(t, "casgen: update balance account (invariant): 2 rows affected", err.Error())
		assert.True(t, errors.Is(err, casgen.ErrInvariant))
		assert.True(t, errors.Is(err, casgen.ErrStorage))
	})

	t.Run("NoEntity", func(t *testing.T) {
		err := casgen.NewStorageError("", "install", errors.New("boom"))
		assert.Equal(t, "casgen: install (io): boom", err.Error())
	})

	assert.False(t, casgen.IsStorageError(nil))
	assert.False(t, casgen.IsStorageError(errors.New("other error")))
}

func TestConstraintError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := casgen.NewConstraintError("UNIQUE constraint failed", nil)
		assert.Equal(t, "casgen: constraint failed: UNIQUE constraint failed", err.Error())
	})

	t.Run("Unwrap", func(t *testing.T) {
		underlying := errors.New("db error")
		err := casgen.NewConstraintError("constraint violated", underlying)
		assert.True(t, errors.Is(err, underlying))
	})

	t.Run("IsConstraintError", func(t *testing.T) {
		err := casgen.NewConstraintError("check failed", nil)
		assert.True(t, casgen.IsConstraintError(err))

		// Wrapped error
		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, casgen.IsConstraintError(wrapped))

		assert.False(t, casgen.IsConstraintError(errors.New("other error")))
		assert.False(t, casgen.IsConstraintError(nil))
	})
}

func TestRollbackError(t *testing.T) {
	cause := errors.New("insert failed")
	rollback := errors.New("connection lost")
	err := &casgen.RollbackError{Err: cause, Rollback: rollback}
	assert.Equal(t, "casgen: insert failed: rollback failed: connection lost", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, rollback))
}

func TestKindStrings(t *testing.T) {
	assert.Equal(t, "stale version", casgen.StaleVersion.String())
	assert.Equal(t, "io", casgen.IO.String())
	assert.Equal(t, "constraint", casgen.Constraint.String())
	assert.Equal(t, "invariant", casgen.Invariant.String())
	assert.Equal(t, "storage(9)", casgen.StorageKind(9).String())
}
