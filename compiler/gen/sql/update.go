package sql

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/casgen/compiler/gen"
)

// genUpdate generates the setters file ({entity}_update.go). Every mutable
// field gets one compare-and-swap setter. It is the only write path of a
// stored instance.
func genUpdate(h gen.GeneratorHelper, t *gen.Type) *jen.File {
	f := h.NewFile(h.Pkg())
	pkg := h.EntityPkgPath(t)
	e := t.Param()

	for _, fd := range t.MutableFields() {
		value := jen.Id(fd.Param())
		if fd.Nullable {
			value = jen.Id("clone").Call(value)
		}
		f.Commentf("%s sets the %q field of %s if the stored row is still at %s.Version().", fd.Setter(), fd.Name, e, e)
		f.Comment("It returns a new instance at the next version and leaves the given one")
		f.Comment("untouched. If the row was changed or deleted since, it returns a")
		f.Comment("*ConflictError matched by ErrStaleVersion.")
		if t.Validator() != "" {
			f.Commentf("The new instance is checked by %s before it is written.", t.Validator())
		}
		f.Func().Params(jen.Id("c").Op("*").Id(t.ClientName())).Id(fd.Setter()).Params(
			jen.Id("ctx").Qual("context", "Context"),
			jen.Id(e).Op("*").Id(t.Name),
			jen.Id(fd.Param()).Add(h.GoType(fd)),
		).Params(jen.Op("*").Id(t.Name), jen.Error()).BlockFunc(func(group *jen.Group) {
			group.Id("v").Op(":=").Op("*").Id(e)
			group.Id("v").Dot("version").Op("++")
			group.Id("v").Dot(fd.StructField()).Op("=").Add(value)
			validate(h, group, t, fd.Op(), jen.Op("&").Id("v"))
			group.Err().Op(":=").Qual(h.RuntimePkg(), "CompareAndSwap").Call(
				jen.Id("ctx"),
				jen.Id("c").Dot("driver"),
				jen.Qual(pkg, "Label"),
				jen.Lit(fd.Op()),
				jen.Id(e).Dot("id"),
				jen.Id(e).Dot("version"),
				jen.Qual(pkg, fd.UpdateStmt()),
				jen.Index().Any().Values(jen.Id(fd.Param()), jen.Id(e).Dot("id"), jen.Id(e).Dot("version")),
			)
			group.If(jen.Err().Op("!=").Nil()).Block(
				jen.Return(jen.Nil(), jen.Err()),
			)
			group.Return(jen.Op("&").Id("v"), jen.Nil())
		})
	}
	return f
}
