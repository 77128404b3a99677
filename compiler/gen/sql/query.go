package sql

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/casgen/compiler/gen"
)

// genQuery generates the loaders file ({entity}_query.go).
func genQuery(h gen.GeneratorHelper, t *gen.Type) *jen.File {
	f := h.NewFile(h.Pkg())
	pkg := h.EntityPkgPath(t)

	f.Commentf("Load returns the %s with the given id. It returns a *NotFoundError if", t.Name)
	f.Comment("no row has the id.")
	f.Func().Params(jen.Id("c").Op("*").Id(t.ClientName())).Id("Load").Params(
		jen.Id("ctx").Qual("context", "Context"),
		jen.Id("id").Uint64(),
	).Params(jen.Op("*").Id(t.Name), jen.Error()).Block(
		loadBody(h, t, jen.Id("id"), jen.Qual(pkg, "SelectStmt"))...,
	)

	for _, fd := range t.UniqueFields() {
		f.Commentf("%s returns the %s whose %q field equals %s.", fd.Loader(), t.Name, fd.Name, fd.Param())
		f.Func().Params(jen.Id("c").Op("*").Id(t.ClientName())).Id(fd.Loader()).Params(
			jen.Id("ctx").Qual("context", "Context"),
			jen.Id(fd.Param()).Add(h.BaseType(fd)),
		).Params(jen.Op("*").Id(t.Name), jen.Error()).Block(
			loadBody(h, t, jen.Id(fd.Param()), jen.Qual(pkg, fd.SelectByStmt()))...,
		)
	}

	f.Commentf("Count returns the number of stored %s instances.", t.Name)
	f.Func().Params(jen.Id("c").Op("*").Id(t.ClientName())).Id("Count").Params(
		jen.Id("ctx").Qual("context", "Context"),
	).Params(jen.Int(), jen.Error()).Block(
		jen.Return(jen.Qual(h.RuntimePkg(), "Count").Call(
			jen.Id("ctx"),
			jen.Id("c").Dot("driver"),
			jen.Qual(pkg, "Label"),
			jen.Qual(pkg, "CountStmt"),
		)),
	)

	f.Commentf("List returns at most limit %s instances ordered by id, skipping the", t.Name)
	f.Comment("first offset. A negative limit returns all remaining instances.")
	f.Func().Params(jen.Id("c").Op("*").Id(t.ClientName())).Id("List").Params(
		jen.Id("ctx").Qual("context", "Context"),
		jen.List(jen.Id("offset"), jen.Id("limit")).Int(),
	).Params(jen.Index().Op("*").Id(t.Name), jen.Error()).Block(
		scanBody(h, t, jen.Qual(pkg, "ListStmt"), jen.Index().Any().Values(jen.Id("limit"), jen.Id("offset")))...,
	)

	f.Commentf("All returns every stored %s instance ordered by id.", t.Name)
	f.Func().Params(jen.Id("c").Op("*").Id(t.ClientName())).Id("All").Params(
		jen.Id("ctx").Qual("context", "Context"),
	).Params(jen.Index().Op("*").Id(t.Name), jen.Error()).Block(
		jen.Return(jen.Id("c").Dot("List").Call(jen.Id("ctx"), jen.Lit(0), jen.Lit(-1))),
	)

	e := t.Param()
	for _, fd := range t.RefFields() {
		ref := fd.Ref
		id := jen.Id(e).Dot(fd.StructField())
		f.Commentf("%s loads the %s referenced by the %q field of %s.", fd.Querier(), ref.Name, fd.Name, e)
		f.Func().Params(jen.Id("c").Op("*").Id(t.ClientName())).Id(fd.Querier()).Params(
			jen.Id("ctx").Qual("context", "Context"),
			jen.Id(e).Op("*").Id(t.Name),
		).Params(jen.Op("*").Id(ref.Name), jen.Error()).BlockFunc(func(group *jen.Group) {
			if fd.Nullable {
				group.If(id.Clone().Op("==").Nil()).Block(
					jen.Return(jen.Nil(), jen.Qual(h.CasgenPkg(), "NewNotFoundError").Call(
						jen.Qual(h.EntityPkgPath(ref), "Label"),
						jen.Nil(),
					)),
				)
				id = jen.Op("*").Add(id)
			}
			group.Return(jen.Id("New"+ref.ClientName()).Call(jen.Id("c").Dot("config")).Dot("Load").Call(jen.Id("ctx"), id))
		})
	}

	for _, fd := range t.Referrers {
		owner := fd.Owner()
		f.Commentf("%s returns the %s instances whose %q field references %s,", fd.BackQuerier(), owner.Name, fd.Name, e)
		f.Comment("ordered by id.")
		f.Func().Params(jen.Id("c").Op("*").Id(t.ClientName())).Id(fd.BackQuerier()).Params(
			jen.Id("ctx").Qual("context", "Context"),
			jen.Id(e).Op("*").Id(t.Name),
		).Params(jen.Index().Op("*").Id(owner.Name), jen.Error()).Block(
			scanBody(h, owner, jen.Qual(h.EntityPkgPath(owner), fd.ListByStmt()), jen.Index().Any().Values(jen.Id(e).Dot("id")))...,
		)
	}
	return f
}

// scanBody returns the statements loading every row the statement returns
// as instances of t.
func scanBody(h gen.GeneratorHelper, t *gen.Type, stmt, args jen.Code) []jen.Code {
	return []jen.Code{
		jen.Var().Id("vs").Index().Op("*").Id(t.Name),
		jen.Err().Op(":=").Qual(h.RuntimePkg(), "Scan").Call(
			jen.Id("ctx"),
			jen.Id("c").Dot("driver"),
			jen.Qual(h.EntityPkgPath(t), "Label"),
			stmt,
			args,
			jen.Func().Params(jen.Id("row").Qual(h.RuntimePkg(), "Scanner")).Error().Block(
				jen.Id("v").Op(":=").Op("&").Id(t.Name).Values(),
				jen.If(
					jen.Err().Op(":=").Id("row").Dot("Scan").Call(jen.Id("v").Dot("scanValues").Call().Op("...")),
					jen.Err().Op("!=").Nil(),
				).Block(
					jen.Return(jen.Err()),
				),
				jen.Id("vs").Op("=").Append(jen.Id("vs"), jen.Id("v")),
				jen.Return(jen.Nil()),
			),
		),
		jen.If(jen.Err().Op("!=").Nil()).Block(
			jen.Return(jen.Nil(), jen.Err()),
		),
		jen.Return(jen.Id("vs"), jen.Nil()),
	}
}

// loadBody returns the statements loading one row with the given lookup
// argument.
func loadBody(h gen.GeneratorHelper, t *gen.Type, arg *jen.Statement, stmt jen.Code) []jen.Code {
	pkg := h.EntityPkgPath(t)
	return []jen.Code{
		jen.Id("v").Op(":=").Op("&").Id(t.Name).Values(),
		jen.Err().Op(":=").Qual(h.RuntimePkg(), "Load").Call(
			jen.Id("ctx"),
			jen.Id("c").Dot("driver"),
			jen.Qual(pkg, "Label"),
			arg,
			stmt,
			jen.Index().Any().Values(arg.Clone()),
			jen.Id("v").Dot("scanValues").Call().Op("..."),
		),
		jen.If(jen.Err().Op("!=").Nil()).Block(
			jen.Return(jen.Nil(), jen.Err()),
		),
		jen.Return(jen.Id("v"), jen.Nil()),
	}
}
