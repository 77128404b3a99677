package gen

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/casgen/schema/field"
)

func TestConfigError(t *testing.T) {
	t.Run("Error message with value", func(t *testing.T) {
		err := NewConfigError("Package", "a/b-c", "last path element must be a valid package name")

		assert.Contains(t, err.Error(), "casgen: config error")
		assert.Contains(t, err.Error(), "Package")
		assert.Contains(t, err.Error(), "a/b-c")
		assert.Contains(t, err.Error(), "valid package name")
	})

	t.Run("Error message without value", func(t *testing.T) {
		err := NewConfigError("Target", nil, "cannot be empty")
		assert.Equal(t, `casgen: config error for "Target": cannot be empty`, err.Error())
	})

	t.Run("Is matches ErrMissingConfig", func(t *testing.T) {
		err := fmt.Errorf("setup: %w", NewConfigError("Target", nil, ""))
		assert.ErrorIs(t, err, ErrMissingConfig)
		assert.True(t, IsConfigError(err))
		assert.False(t, IsConfigError(errors.New("other")))
	})
}

func TestGenerationError(t *testing.T) {
	t.Run("Error message with all fields", func(t *testing.T) {
		cause := errors.New("disk full")
		err := NewGenerationError("write", "account.go", "short write", cause)

		assert.Equal(t, "casgen: generation error in phase write (file: account.go): short write: disk full", err.Error())
	})

	t.Run("Error message with phase only", func(t *testing.T) {
		err := &GenerationError{Phase: "render"}
		assert.Equal(t, "casgen: generation error in phase render", err.Error())
	})

	t.Run("Unwrap returns cause", func(t *testing.T) {
		cause := errors.New("root cause")
		err := NewGenerationError("format", "", "", cause)

		assert.Equal(t, cause, err.Unwrap())
		assert.ErrorIs(t, err, cause)
		assert.ErrorIs(t, err, ErrGenerationFailed)
		assert.True(t, IsGenerationError(err))
	})
}

func TestUnsupportedTypeError(t *testing.T) {
	err := NewUnsupportedTypeError("Account", "balance", field.TypeInvalid)

	assert.Equal(t, `casgen: unsupported type "invalid" for attribute Account.balance`, err.Error())
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.True(t, IsUnsupportedTypeError(fmt.Errorf("generate: %w", err)))
	assert.False(t, IsUnsupportedTypeError(NewConfigError("Target", nil, "")))
}
