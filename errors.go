package casgen

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for the versioned object contract.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("casgen: entity not found")

	// ErrStaleVersion is returned when a conditional write finds that the
	// stored version no longer matches the version of the instance.
	ErrStaleVersion = errors.New("casgen: stale version")

	// ErrStorage is matched by every StorageError.
	ErrStorage = errors.New("casgen: storage failure")

	// ErrInvariant is returned when the store reports a state the protocol
	// rules out, such as a conditional write affecting more than one row.
	ErrInvariant = errors.New("casgen: storage invariant violated")

	// ErrValidation is matched by every ValidationError.
	ErrValidation = errors.New("casgen: validation failed")
)

// NotFoundError represents an error when an entity is not found.
type NotFoundError struct {
	label string
	id    any
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("casgen: %s not found (id=%v)", e.label, e.id)
	}
	return fmt.Sprintf("casgen: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the entity label.
func (e *NotFoundError) Label() string {
	return e.label
}

// ID returns the ID that was searched for, if available.
func (e *NotFoundError) ID() any {
	return e.id
}

// NewNotFoundError returns a new NotFoundError for the given entity label.
func NewNotFoundError(label string, id any) *NotFoundError {
	return &NotFoundError{label: label, id: id}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// ConflictKind classifies a ConflictError.
type ConflictKind uint8

// StaleVersion is the only conflict kind. A conditional write or delete
// matched no row because the stored version advanced or the row is gone.
const StaleVersion ConflictKind = iota + 1

// String returns the conflict kind in human readable form.
func (k ConflictKind) String() string {
	if k == StaleVersion {
		return "stale version"
	}
	return fmt.Sprintf("conflict(%d)", k)
}

// ConflictError is returned by conditional writes that lost the race against
// another writer. Callers reload the instance and retry, or give up.
type ConflictError struct {
	Kind    ConflictKind
	Entity  string // Entity label.
	Op      string // Operation, e.g. "update balance" or "delete".
	ID      uint64
	Version uint64 // Version the caller believed current.
}

// Error returns the error string.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("casgen: %s %s (id=%d, version=%d): %s", e.Op, e.Entity, e.ID, e.Version, e.Kind)
}

// Is reports whether the target matches the sentinel of the conflict kind.
func (e *ConflictError) Is(err error) bool {
	return e.Kind == StaleVersion && err == ErrStaleVersion
}

// NewStaleVersionError returns a ConflictError of kind StaleVersion.
func NewStaleVersionError(entity, op string, id, version uint64) *ConflictError {
	return &ConflictError{Kind: StaleVersion, Entity: entity, Op: op, ID: id, Version: version}
}

// IsStaleVersion returns true if the error reports a stale version.
func IsStaleVersion(err error) bool {
	return err != nil && errors.Is(err, ErrStaleVersion)
}

// StorageKind classifies a StorageError.
type StorageKind uint8

// List of storage error kinds.
const (
	// IO covers driver, connection and transaction failures.
	IO StorageKind = iota + 1
	// Constraint is a unique or foreign key violation.
	Constraint
	// Invariant is a result the protocol rules out.
	Invariant
)

// String returns the storage kind in human readable form.
func (k StorageKind) String() string {
	switch k {
	case IO:
		return "io"
	case Constraint:
		return "constraint"
	case Invariant:
		return "invariant"
	default:
		return fmt.Sprintf("storage(%d)", k)
	}
}

// StorageError wraps a failure of the underlying store.
type StorageError struct {
	Kind   StorageKind
	Entity string // Entity label, or the sequence name for id allocation.
	Op     string // Operation (e.g., "create", "load", "update balance").
	Err    error
}

// Error returns the error string.
func (e *StorageError) Error() string {
	if e.Entity == "" {
		return fmt.Sprintf("casgen: %s (%s): %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("casgen: %s %s (%s): %v", e.Op, e.Entity, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is reports whether the target is ErrStorage, or ErrInvariant for
// invariant violations.
func (e *StorageError) Is(err error) bool {
	return err == ErrStorage || (e.Kind == Invariant && err == ErrInvariant)
}

// NewStorageError returns a new StorageError of kind IO, or of kind
// Constraint if err is a ConstraintError.
func NewStorageError(entity, op string, err error) *StorageError {
	kind := IO
	if IsConstraintError(err) {
		kind = Constraint
	}
	return &StorageError{Kind: kind, Entity: entity, Op: op, Err: err}
}

// NewInvariantError returns a StorageError of kind Invariant.
func NewInvariantError(entity, op string, format string, args ...any) *StorageError {
	return &StorageError{
		Kind:   Invariant,
		Entity: entity,
		Op:     op,
		Err:    fmt.Errorf(format, args...),
	}
}

// IsStorageError returns true if the error is a StorageError.
func IsStorageError(err error) bool {
	if err == nil {
		return false
	}
	var e *StorageError
	return errors.As(err, &e)
}

// ConstraintError represents a database constraint violation error.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("casgen: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// ValidationError is returned when the validator of an entity rejects an
// instance about to be created or set. Nothing is written.
type ValidationError struct {
	Entity string // Entity label.
	Op     string // Operation, e.g. "create" or "update balance".
	Err    error  // Error returned by the validator.
}

// Error returns the error string.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("casgen: %s %s: validation failed: %v", e.Op, e.Entity, e.Err)
}

// Unwrap returns the error of the validator.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is reports whether the target is ErrValidation.
func (e *ValidationError) Is(err error) bool {
	return err == ErrValidation
}

// NewValidationError returns a new ValidationError.
func NewValidationError(entity, op string, err error) *ValidationError {
	return &ValidationError{Entity: entity, Op: op, Err: err}
}

// IsValidationError returns true if the error is a ValidationError.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ValidationError
	return errors.As(err, &e)
}

// RollbackError wraps an error that occurred during a transaction rollback.
type RollbackError struct {
	Err      error // Original error that triggered rollback
	Rollback error
}

// Error returns the error string.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("casgen: %v: rollback failed: %v", e.Err, e.Rollback)
}

// Unwrap returns both errors.
func (e *RollbackError) Unwrap() []error {
	return []error{e.Err, e.Rollback}
}
