// Package casgen holds the contract shared by the generator and the code it
// generates: the Versioned interface and the runtime error taxonomy.
//
// Generated packages re-export the error types declared here, so applications
// rarely import this package directly.
package casgen

import "github.com/syssam/casgen/schema/field"

// InitialVersion is the version of a newly created instance.
const InitialVersion uint64 = 1

// Versioned is implemented by every generated entity.
//
// An instance is a snapshot of a stored row tagged with the version it was
// read at. Writes through the generated client succeed only while the stored
// version still equals Version, and return a new instance carrying the next
// version.
type Versioned interface {
	ID() uint64
	Version() uint64
}

// Attribute describes a public attribute of a generated entity. Every
// entity package lists its attributes in an Attributes variable, sensitive
// attributes excluded.
type Attribute struct {
	Name     string
	Column   string
	Type     field.Type
	Ref      string // Label of the referenced entity.
	Nullable bool
	Unique   bool
	Mutable  bool
}
