package gen

import "github.com/dave/jennifer/jen"

// EntityGenerator generates per-entity code.
// Each method is called once per entity type in the schema.
type EntityGenerator interface {
	// GenEntity generates the entity struct and its client ({entity}.go)
	GenEntity(t *Type) *jen.File
	// GenCreate generates the create operation ({entity}_create.go)
	GenCreate(t *Type) *jen.File
	// GenQuery generates the loaders ({entity}_query.go)
	GenQuery(t *Type) *jen.File
	// GenUpdate generates the CAS setters ({entity}_update.go)
	GenUpdate(t *Type) *jen.File
	// GenDelete generates the CAS delete ({entity}_delete.go)
	GenDelete(t *Type) *jen.File
	// GenPackage generates entity package constants ({entity}/{entity}.go)
	GenPackage(t *Type) *jen.File
}

// GraphGenerator generates graph-level code.
// Each method is called once per generation run.
type GraphGenerator interface {
	// GenClient generates the client (client.go)
	GenClient() *jen.File
	// GenCasgen generates error aliases and shared helpers (casgen.go)
	GenCasgen() *jen.File
	// GenSchema generates the install statements and snapshot (schema.go)
	GenSchema() *jen.File
}

// Dialect is implemented by the storage dialects of the generator.
//
// Methods return *jen.File containing the generated code. The generator
// renders every file in memory and writes them only when all succeeded.
//
// Usage:
//
//	import "github.com/syssam/casgen/compiler/gen/sql"
//
//	generator := gen.NewJenniferGenerator(graph)
//	generator.WithDialect(sql.NewDialect(generator))
type Dialect interface {
	// Name returns the dialect name (e.g., "sqlite")
	Name() string
	EntityGenerator
	GraphGenerator
}

// GeneratorHelper provides helper methods for dialect implementations.
// JenniferGenerator implements this interface, allowing dialect packages
// to use helper methods without importing the full generator.
type GeneratorHelper interface {
	// NewFile creates a new Jennifer file with the standard header comment.
	NewFile(pkg string) *jen.File

	// GoType returns the Jennifer code for a field's Go type.
	GoType(f *Field) jen.Code

	// BaseType returns the Jennifer code for a field's base type (without pointer).
	BaseType(f *Field) jen.Code

	// ZeroValue returns the Jennifer code for a field's zero value.
	ZeroValue(f *Field) jen.Code

	// CasgenPkg returns the import path for the casgen package.
	CasgenPkg() string

	// RuntimePkg returns the import path for the runtime package.
	RuntimePkg() string

	// DialectPkg returns the import path for the dialect package.
	DialectPkg() string

	// SQLPkg returns the import path for the dialect/sql package.
	SQLPkg() string

	// EntityPkgPath returns the full import path for an entity's subpackage.
	EntityPkgPath(t *Type) string

	// Graph returns the schema graph.
	Graph() *Graph

	// Pkg returns the output package name.
	Pkg() string
}
