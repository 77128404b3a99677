// Package gen provides code generation for casgen schemas.
//
// It compiles a validated entity schema into a Go package of versioned
// accessors: every entity gets a struct with typed getters, a client with
// Create, Load and Delete, and one compare-and-swap setter per mutable
// attribute.
//
// # Architecture
//
// The code generation pipeline follows this flow:
//
//	Description (JSON or YAML)
//	        ↓
//	   compiler/load + schema.New
//	        ↓
//	   Graph (Types, Fields, storage tables)
//	        ↓
//	   Dialect (compiler/gen/sql)
//	        ↓
//	   Rendered files (memory)
//	        ↓
//	   Writer (target directory)
//
// # Key Types
//
//   - Graph: The types of the schema with their tables, install DDL and snapshot
//   - Type: An entity with its fields and storage statements
//   - Field: An attribute with the names used by the emitters
//   - Config: Global configuration for code generation
//
// # Interface Hierarchy
//
//	Dialect
//	├── Name() string
//	├── EntityGenerator (per-entity files)
//	│   ├── GenEntity, GenCreate, GenQuery
//	│   └── GenUpdate, GenDelete, GenPackage
//	└── GraphGenerator (graph-level files)
//	    └── GenClient, GenCasgen, GenSchema
//
// # Error Handling
//
//   - ConfigError: Configuration errors
//   - GenerationError: Rendering, formatting and write errors
//   - UnsupportedTypeError: An attribute type without Go mapping
//
// Rendering errors abort the run before anything is written.
//
// # Configuration
//
//	config, err := gen.NewConfig(
//	    gen.WithTarget("./store"),
//	    gen.WithPackage("github.com/org/project/store"),
//	    gen.WithHeader("Copyright 2026 Org."),
//	)
//
// # Usage
//
//	graph, err := gen.NewGraph(config, s)
//	if err != nil {
//	    return err
//	}
//	err = sql.Generate(ctx, graph)
//
// # Generated Output
//
//	{output}/
//	├── casgen.go           // Error aliases and helpers
//	├── client.go           // Client struct with entity clients
//	├── schema.go           // Install statements and schema snapshot
//	├── {entity}.go         // Entity struct and client
//	├── {entity}_create.go  // Create
//	├── {entity}_query.go   // Load, LoadBy, Count, List, All
//	├── {entity}_update.go  // CAS setters
//	├── {entity}_delete.go  // CAS delete
//	└── {entity}/
//	    └── {entity}.go     // Package constants (table, columns, statements)
package gen
