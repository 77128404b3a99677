package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSchema is matched by every *Error through errors.Is.
var ErrInvalidSchema = errors.New("casgen: invalid schema")

// IssueKind classifies a single validation problem.
type IssueKind uint8

// List of issue kinds.
const (
	DuplicateEntity IssueKind = iota + 1
	DuplicateAttribute
	UnknownType
	EmptyEntityName
	EmptyAttributeName
	InvalidName
	UnknownReference
	DuplicateTable
)

var issueNames = map[IssueKind]string{
	DuplicateEntity:    "duplicate entity",
	DuplicateAttribute: "duplicate attribute",
	UnknownType:        "unknown type",
	EmptyEntityName:    "empty entity name",
	EmptyAttributeName: "empty attribute name",
	InvalidName:        "invalid name",
	UnknownReference:   "unknown reference",
	DuplicateTable:     "duplicate table",
}

// String returns the issue kind in human readable form.
func (k IssueKind) String() string {
	if s, ok := issueNames[k]; ok {
		return s
	}
	return fmt.Sprintf("issue(%d)", k)
}

// Issue is one problem found in a description.
type Issue struct {
	Kind      IssueKind
	Entity    string // Entity name, or its position when the name is empty.
	Attribute string // Attribute name (if applicable).
	Message   string
}

// String formats the issue.
func (i *Issue) String() string {
	var b strings.Builder
	b.WriteString(i.Kind.String())
	if i.Entity != "" {
		b.WriteString(" on entity ")
		b.WriteString(i.Entity)
	}
	if i.Attribute != "" {
		b.WriteString(" attribute ")
		b.WriteString(i.Attribute)
	}
	if i.Message != "" {
		b.WriteString(": ")
		b.WriteString(i.Message)
	}
	return b.String()
}

// Error is returned by New when a description is invalid. It enumerates
// every issue found, in description order.
type Error struct {
	Issues []*Issue
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch len(e.Issues) {
	case 0:
		return "casgen: schema error"
	case 1:
		return "casgen: schema error: " + e.Issues[0].String()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "casgen: schema error: %d issues:", len(e.Issues))
	for i, issue := range e.Issues {
		fmt.Fprintf(&b, "\n  [%d] %s", i+1, issue)
	}
	return b.String()
}

// Is reports whether the target matches ErrInvalidSchema.
func (e *Error) Is(target error) bool {
	return target == ErrInvalidSchema
}

// Has reports if the error holds at least one issue of the given kind.
func (e *Error) Has(kind IssueKind) bool {
	for _, i := range e.Issues {
		if i.Kind == kind {
			return true
		}
	}
	return false
}

func (e *Error) add(kind IssueKind, entity, attr, format string, args ...any) {
	e.Issues = append(e.Issues, &Issue{
		Kind:      kind,
		Entity:    entity,
		Attribute: attr,
		Message:   fmt.Sprintf(format, args...),
	})
}

// IsSchemaError returns true if the error is a schema validation error.
func IsSchemaError(err error) bool {
	if err == nil {
		return false
	}
	var e *Error
	return errors.As(err, &e)
}
