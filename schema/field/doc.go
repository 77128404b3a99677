// Package field defines the closed set of attribute types an entity
// description may declare.
//
// Every type has a canonical name used in descriptions and snapshots:
//
//	integer    signed 64-bit integer (Go int64)
//	text       UTF-8 string (Go string)
//	boolean    boolean stored as a small integer (Go bool)
//	real       IEEE-754 double (Go float64)
//	reference  identifier of another entity (Go uint64)
//
// The set is intentionally closed. Descriptions naming any other type are
// rejected by the schema validator.
package field
