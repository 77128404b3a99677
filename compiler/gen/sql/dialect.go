package sql

import (
	"context"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/casgen/compiler/gen"
	"github.com/syssam/casgen/dialect"
)

// Generate is a convenience function to generate the SQLite client package
// of g using the Jennifer generator. Nothing is written if any file fails
// to render.
//
// Example:
//
//	import "github.com/syssam/casgen/compiler/gen/sql"
//	err := sql.Generate(ctx, graph)
func Generate(ctx context.Context, g *gen.Graph) error {
	if g == nil || g.Config == nil || g.Target == "" {
		return gen.NewConfigError("Target", nil, "missing target directory in config")
	}
	generator := gen.NewJenniferGenerator(g)
	generator.WithDialect(NewDialect(generator))
	return generator.Generate(ctx)
}

// Dialect implements gen.Dialect for SQLite. Generated clients run the
// statements planned by dialect/sql/schema through the runtime package.
type Dialect struct {
	helper gen.GeneratorHelper
}

// NewDialect creates a new SQL dialect generator.
// The helper parameter should be a *gen.JenniferGenerator.
func NewDialect(helper gen.GeneratorHelper) *Dialect {
	return &Dialect{helper: helper}
}

// Name returns the dialect name.
func (d *Dialect) Name() string {
	return dialect.SQLite
}

// GenEntity generates the entity struct file ({entity}.go).
// Includes: entity struct, getters, String, MarshalJSON, entity client.
func (d *Dialect) GenEntity(t *gen.Type) *jen.File {
	return genEntity(d.helper, t)
}

// GenCreate generates the create file ({entity}_create.go).
// Includes: Create, the <Entity>Create input and CreateBulk.
func (d *Dialect) GenCreate(t *gen.Type) *jen.File {
	return genCreate(d.helper, t)
}

// GenQuery generates the loaders file ({entity}_query.go).
// Includes: Load, LoadBy<Unique>, Count, List, All, Query<Ref> and the
// loaders of the referencing instances.
func (d *Dialect) GenQuery(t *gen.Type) *jen.File {
	return genQuery(d.helper, t)
}

// GenUpdate generates the CAS setters file ({entity}_update.go).
func (d *Dialect) GenUpdate(t *gen.Type) *jen.File {
	return genUpdate(d.helper, t)
}

// GenDelete generates the CAS delete file ({entity}_delete.go).
func (d *Dialect) GenDelete(t *gen.Type) *jen.File {
	return genDelete(d.helper, t)
}

// GenPackage generates the entity package constants file ({entity}/{entity}.go).
// Includes: label, table name, column names, statements, attributes.
func (d *Dialect) GenPackage(t *gen.Type) *jen.File {
	return genPackage(d.helper, t)
}

// GenClient generates the client file (client.go).
func (d *Dialect) GenClient() *jen.File {
	return genClient(d.helper)
}

// GenCasgen generates casgen.go (error aliases and shared helpers).
func (d *Dialect) GenCasgen() *jen.File {
	return genCasgen(d.helper)
}

// GenSchema generates schema.go (install statements and snapshot).
func (d *Dialect) GenSchema() *jen.File {
	return genSchema(d.helper)
}

// Verify Dialect implements gen.Dialect at compile time.
var _ gen.Dialect = (*Dialect)(nil)
