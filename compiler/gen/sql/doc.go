// Package sql implements the SQLite dialect of the casgen code generator.
//
// The emitters turn every entity of a gen.Graph into a typed client whose
// writes follow the versioned object protocol: an id from the persisted
// counter on create, and single-statement compare-and-swap on every set
// and delete. The emitted code holds no SQL of its own beyond the
// statement constants planned by dialect/sql/schema, and delegates every
// round-trip to the runtime package.
//
// # Generated Output Structure
//
//	{output}/
//	├── casgen.go             # Error aliases, Versioned assertions
//	├── client.go             # Client, NewClient, Open, Close, Install, Tx
//	├── schema.go             # Install statements, description snapshot
//	├── {entity}.go           # Entity struct, getters, String, MarshalJSON, client
//	├── {entity}_create.go    # Create
//	├── {entity}_query.go     # Load, LoadBy<Unique>, Count, List, All, Query<Ref>
//	├── {entity}_update.go    # Set<Field> (compare-and-swap)
//	├── {entity}_delete.go    # Delete (compare-and-swap)
//	└── {entity}/
//	    └── {entity}.go       # Label, Table, columns, statements
//
// # Usage
//
//	g, err := gen.NewGraph(cfg, s)
//	if err != nil {
//		return err
//	}
//	if err := sql.Generate(ctx, g); err != nil {
//		return err
//	}
package sql
