package sql

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/casgen/compiler/gen"
)

// genDelete generates the delete file ({entity}_delete.go).
func genDelete(h gen.GeneratorHelper, t *gen.Type) *jen.File {
	f := h.NewFile(h.Pkg())
	pkg := h.EntityPkgPath(t)
	e := t.Param()

	f.Commentf("Delete deletes %s if the stored row is still at %s.Version(). It returns", e, e)
	f.Comment("a *ConflictError matched by ErrStaleVersion if the row was changed or")
	f.Comment("deleted since. The id of a deleted instance is never reused.")
	f.Func().Params(jen.Id("c").Op("*").Id(t.ClientName())).Id("Delete").Params(
		jen.Id("ctx").Qual("context", "Context"),
		jen.Id(e).Op("*").Id(t.Name),
	).Error().Block(
		jen.Return(jen.Qual(h.RuntimePkg(), "CompareAndDelete").Call(
			jen.Id("ctx"),
			jen.Id("c").Dot("driver"),
			jen.Qual(pkg, "Label"),
			jen.Id(e).Dot("id"),
			jen.Id(e).Dot("version"),
			jen.Qual(pkg, "DeleteStmt"),
		)),
	)
	return f
}
