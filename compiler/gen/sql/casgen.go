package sql

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/casgen/compiler/gen"
)

// genCasgen generates casgen.go. It re-exports the error taxonomy of the
// runtime, so callers of the generated package need no other import.
func genCasgen(h gen.GeneratorHelper) *jen.File {
	f := h.NewFile(h.Pkg())
	pkg := h.CasgenPkg()

	f.Comment("Error types returned by the entity clients.")
	f.Type().DefsFunc(func(group *jen.Group) {
		for _, name := range []string{
			"NotFoundError",
			"ConflictError",
			"StorageError",
			"ConstraintError",
			"ValidationError",
			"RollbackError",
		} {
			group.Id(name).Op("=").Qual(pkg, name)
		}
		group.Comment("Versioned is implemented by every entity of the package.")
		group.Id("Versioned").Op("=").Qual(pkg, "Versioned")
	})

	f.Var().Defs(
		jen.Comment("ErrNotFound is matched by every NotFoundError."),
		jen.Id("ErrNotFound").Op("=").Qual(pkg, "ErrNotFound"),
		jen.Comment("ErrStaleVersion is matched by a ConflictError of a setter or Delete"),
		jen.Comment("called with an instance that is no longer current."),
		jen.Id("ErrStaleVersion").Op("=").Qual(pkg, "ErrStaleVersion"),
		jen.Comment("ErrStorage is matched by every StorageError."),
		jen.Id("ErrStorage").Op("=").Qual(pkg, "ErrStorage"),
		jen.Comment("ErrInvariant is matched by a StorageError reporting a store state the"),
		jen.Comment("versioning protocol rules out."),
		jen.Id("ErrInvariant").Op("=").Qual(pkg, "ErrInvariant"),
		jen.Comment("ErrValidation is matched by a ValidationError of an entity validator."),
		jen.Id("ErrValidation").Op("=").Qual(pkg, "ErrValidation"),
	)

	for _, fn := range []struct{ name, doc string }{
		{"IsNotFound", "IsNotFound returns a boolean indicating whether the error is a not found error."},
		{"IsStaleVersion", "IsStaleVersion returns a boolean indicating whether the error is a stale version conflict."},
		{"IsStorageError", "IsStorageError returns a boolean indicating whether the error is a storage failure."},
		{"IsConstraintError", "IsConstraintError returns a boolean indicating whether the error is a constraint failure."},
		{"IsValidationError", "IsValidationError returns a boolean indicating whether the error was returned by a validator."},
	} {
		f.Comment(fn.doc)
		f.Func().Id(fn.name).Params(jen.Err().Error()).Bool().Block(
			jen.Return(jen.Qual(pkg, fn.name).Call(jen.Err())),
		)
	}

	if nodes := h.Graph().Nodes; len(nodes) > 0 {
		f.Var().DefsFunc(func(group *jen.Group) {
			for _, t := range nodes {
				group.Id("_").Id("Versioned").Op("=").Parens(jen.Op("*").Id(t.Name)).Parens(jen.Nil())
			}
		})
	}

	if hasNullable(h.Graph()) {
		f.Comment("clone returns a copy of the value p points to, or nil.")
		f.Func().Id("clone").Types(jen.Id("T").Any()).Params(jen.Id("p").Op("*").Id("T")).Op("*").Id("T").Block(
			jen.If(jen.Id("p").Op("==").Nil()).Block(
				jen.Return(jen.Nil()),
			),
			jen.Id("v").Op(":=").Op("*").Id("p"),
			jen.Return(jen.Op("&").Id("v")),
		)
	}
	return f
}

func hasNullable(g *gen.Graph) bool {
	for _, t := range g.Nodes {
		for _, fd := range t.Fields {
			if fd.Nullable {
				return true
			}
		}
	}
	return false
}
