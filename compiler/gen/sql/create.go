package sql

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/casgen/compiler/gen"
)

// genCreate generates the create file ({entity}_create.go).
func genCreate(h gen.GeneratorHelper, t *gen.Type) *jen.File {
	f := h.NewFile(h.Pkg())
	pkg := h.EntityPkgPath(t)

	f.Commentf("Create allocates an id for a new %s, stores it at the initial version", t.Name)
	f.Comment("and returns the stored instance. The id counter and the row are written")
	f.Comment("in one transaction.")
	f.Func().Params(jen.Id("c").Op("*").Id(t.ClientName())).Id("Create").ParamsFunc(func(group *jen.Group) {
		group.Id("ctx").Qual("context", "Context")
		for _, fd := range t.Fields {
			group.Id(fd.Param()).Add(h.GoType(fd))
		}
	}).Params(jen.Op("*").Id(t.Name), jen.Error()).BlockFunc(func(group *jen.Group) {
		group.Id("v").Op(":=").Op("&").Id(t.Name).Values(jen.DictFunc(func(d jen.Dict) {
			d[jen.Id("version")] = jen.Qual(h.CasgenPkg(), "InitialVersion")
			for _, fd := range t.Fields {
				value := jen.Id(fd.Param())
				if fd.Nullable {
					value = jen.Id("clone").Call(value)
				}
				d[jen.Id(fd.StructField())] = value
			}
		}))
		validate(h, group, t, "create", jen.Id("v"))
		group.List(jen.Id("id"), jen.Err()).Op(":=").Qual(h.RuntimePkg(), "Create").Call(
			jen.Id("ctx"),
			jen.Id("c").Dot("driver"),
			jen.Qual(pkg, "Label"),
			jen.Qual(pkg, "InsertStmt"),
			jen.Func().Params(jen.Id("id").Uint64()).Index().Any().Block(
				jen.Return(insertArgs(t, jen.Id("v"))),
			),
		)
		group.If(jen.Err().Op("!=").Nil()).Block(
			jen.Return(jen.Nil(), jen.Err()),
		)
		group.Id("v").Dot("id").Op("=").Id("id")
		group.Return(jen.Id("v"), jen.Nil())
	})

	genCreateBulk(h, f, t)
	return f
}

// genCreateBulk generates the input struct of CreateBulk and CreateBulk.
func genCreateBulk(h gen.GeneratorHelper, f *jen.File, t *gen.Type) {
	pkg := h.EntityPkgPath(t)
	input := t.CreateName()

	f.Commentf("%s holds the attributes of a %s created by CreateBulk.", input, t.Name)
	f.Type().Id(input).StructFunc(func(group *jen.Group) {
		for _, fd := range t.Fields {
			group.Id(fd.StructName()).Add(h.GoType(fd))
		}
	})

	loop := jen.List(jen.Id("i"), jen.Id("row"))
	if len(t.Fields) == 0 {
		loop = jen.Id("i")
	}
	f.Commentf("CreateBulk creates one %s per row in a single transaction and returns", t.Name)
	f.Comment("them in row order. Either every row is stored or none is.")
	f.Func().Params(jen.Id("c").Op("*").Id(t.ClientName())).Id("CreateBulk").Params(
		jen.Id("ctx").Qual("context", "Context"),
		jen.Id("rows").Op("...").Id(input),
	).Params(jen.Index().Op("*").Id(t.Name), jen.Error()).Block(
		jen.Id("vs").Op(":=").Make(jen.Index().Op("*").Id(t.Name), jen.Len(jen.Id("rows"))),
		jen.For(loop.Op(":=").Range().Id("rows")).BlockFunc(func(group *jen.Group) {
			group.Id("vs").Index(jen.Id("i")).Op("=").Op("&").Id(t.Name).Values(jen.DictFunc(func(d jen.Dict) {
				d[jen.Id("version")] = jen.Qual(h.CasgenPkg(), "InitialVersion")
				for _, fd := range t.Fields {
					value := jen.Id("row").Dot(fd.StructName())
					if fd.Nullable {
						value = jen.Id("clone").Call(value)
					}
					d[jen.Id(fd.StructField())] = value
				}
			}))
			validate(h, group, t, "create", jen.Id("vs").Index(jen.Id("i")))
		}),
		jen.List(jen.Id("ids"), jen.Err()).Op(":=").Qual(h.RuntimePkg(), "CreateBulk").Call(
			jen.Id("ctx"),
			jen.Id("c").Dot("driver"),
			jen.Qual(pkg, "Label"),
			jen.Qual(pkg, "InsertStmt"),
			jen.Len(jen.Id("vs")),
			jen.Func().Params(jen.Id("i").Int(), jen.Id("id").Uint64()).Index().Any().Block(
				jen.Return(insertArgs(t, jen.Id("vs").Index(jen.Id("i")))),
			),
		),
		jen.If(jen.Err().Op("!=").Nil()).Block(
			jen.Return(jen.Nil(), jen.Err()),
		),
		jen.For(jen.List(jen.Id("i"), jen.Id("id")).Op(":=").Range().Id("ids")).Block(
			jen.Id("vs").Index(jen.Id("i")).Dot("id").Op("=").Id("id"),
		),
		jen.Return(jen.Id("vs"), jen.Nil()),
	)
}

// insertArgs returns the arguments of the insert statement of the instance
// v, in table column order. The id is the local id.
func insertArgs(t *gen.Type, v *jen.Statement) *jen.Statement {
	return jen.Index().Any().ValuesFunc(func(group *jen.Group) {
		group.Id("id")
		group.Add(v.Clone().Dot("version"))
		for _, fd := range t.Fields {
			group.Add(v.Clone().Dot(fd.StructField()))
		}
	})
}

// validate adds the call of the validator of t on v, if t has one. A
// rejected instance returns a *casgen.ValidationError before anything is
// written.
func validate(h gen.GeneratorHelper, group *jen.Group, t *gen.Type, op string, v jen.Code) {
	name := t.Validator()
	if name == "" {
		return
	}
	group.If(
		jen.Err().Op(":=").Id(name).Call(jen.Id("ctx"), v),
		jen.Err().Op("!=").Nil(),
	).Block(
		jen.Return(jen.Nil(), jen.Qual(h.CasgenPkg(), "NewValidationError").Call(
			jen.Qual(h.EntityPkgPath(t), "Label"),
			jen.Lit(op),
			jen.Err(),
		)),
	)
}
