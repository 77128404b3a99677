package sql

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/casgen/compiler/gen"
)

// genSchema generates schema.go. It holds the install statements planned
// for the graph and the snapshot of the description it was built from,
// which compiler/load.ParseSnapshot restores.
func genSchema(h gen.GeneratorHelper) *jen.File {
	f := h.NewFile(h.Pkg())
	g := h.Graph()

	f.Comment("InstallStatements create the id counter table and the entity tables.")
	f.Comment("They are safe to run against an installed database.")
	f.Var().Id("InstallStatements").Op("=").Index().String().ValuesFunc(func(group *jen.Group) {
		for _, stmt := range g.Install {
			group.Line().Lit(stmt)
		}
		group.Line()
	})

	f.Comment("Snapshot is the canonical JSON description the package was generated from.")
	f.Const().Id("Snapshot").Op("=").Lit(string(g.Snapshot))
	return f
}
