package gen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/syssam/casgen/schema/field"
)

// Sentinel errors for common failure cases.
var (
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("casgen: missing configuration")
	// ErrGenerationFailed indicates a code generation failure.
	ErrGenerationFailed = errors.New("casgen: code generation failed")
	// ErrUnsupportedType indicates an attribute type the generator cannot map.
	ErrUnsupportedType = errors.New("casgen: unsupported attribute type")
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("casgen: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("casgen: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// GenerationError represents a code generation error.
type GenerationError struct {
	Phase   string // "render", "format", "write", etc.
	File    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("casgen: generation error")
	if e.Phase != "" {
		b.WriteString(" in phase ")
		b.WriteString(e.Phase)
	}
	if e.File != "" {
		b.WriteString(" (file: ")
		b.WriteString(e.File)
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(phase, file, message string, cause error) *GenerationError {
	return &GenerationError{
		Phase:   phase,
		File:    file,
		Message: message,
		Cause:   cause,
	}
}

// UnsupportedTypeError is returned when an attribute has a type the
// generator has no Go mapping for. Nothing is written when it occurs.
type UnsupportedTypeError struct {
	Entity    string
	Attribute string
	Type      field.Type
}

// Error implements the error interface.
func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("casgen: unsupported type %q for attribute %s.%s", e.Type, e.Entity, e.Attribute)
}

// Is reports whether the target matches the sentinel error for UnsupportedTypeError.
func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedType
}

// NewUnsupportedTypeError creates a new UnsupportedTypeError.
func NewUnsupportedTypeError(entity, attribute string, t field.Type) *UnsupportedTypeError {
	return &UnsupportedTypeError{
		Entity:    entity,
		Attribute: attribute,
		Type:      t,
	}
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsGenerationError reports whether the error is a GenerationError.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}

// IsUnsupportedTypeError reports whether the error is an UnsupportedTypeError.
func IsUnsupportedTypeError(err error) bool {
	var typeErr *UnsupportedTypeError
	return errors.As(err, &typeErr)
}
