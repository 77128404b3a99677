package sql

import (
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/casgen/compiler/gen"
	sqlschema "github.com/syssam/casgen/dialect/sql/schema"
)

// fieldPkg declares the attribute types listed by the entity packages.
const fieldPkg = "github.com/syssam/casgen/schema/field"

// genPackage generates the entity package file ({entity}/{entity}.go).
// It holds the names and statements of the entity table, so the generated
// client and hand-written queries share one definition.
func genPackage(h gen.GeneratorHelper, t *gen.Type) *jen.File {
	f := h.NewFile(t.Package())
	f.PackageComment(fmt.Sprintf("Package %s holds the table layout and statements of the %s entity.", t.Package(), t.Name))

	f.Const().DefsFunc(func(group *jen.Group) {
		group.Comment(fmt.Sprintf("Label holds the string label denoting the %s type in the database.", t.Label()))
		group.Id("Label").Op("=").Lit(t.Label())
		group.Comment(fmt.Sprintf("Table holds the table name of the %s in the database.", t.Label()))
		group.Id("Table").Op("=").Lit(t.TableName())
		group.Comment("FieldID holds the string denoting the id field in the database.")
		group.Id("FieldID").Op("=").Lit(sqlschema.IDColumn)
		group.Comment("FieldVersion holds the string denoting the version field in the database.")
		group.Id("FieldVersion").Op("=").Lit(sqlschema.VersionColumn)
		for _, fd := range t.Fields {
			group.Comment(fmt.Sprintf("%s holds the string denoting the %s field in the database.", fd.Constant(), fd.Name))
			group.Id(fd.Constant()).Op("=").Lit(fd.Column)
		}
	})

	f.Comment(fmt.Sprintf("Columns holds all SQL columns for %s fields, in table order.", t.Label()))
	f.Var().Id("Columns").Op("=").Index().String().ValuesFunc(func(group *jen.Group) {
		group.Id("FieldID")
		group.Id("FieldVersion")
		for _, fd := range t.Fields {
			group.Id(fd.Constant())
		}
	})

	genStatements(f, t)
	genAttributes(h, f, t)

	f.Comment("ValidColumn reports if the column name is valid (part of the table columns).")
	f.Func().Id("ValidColumn").Params(jen.Id("column").String()).Bool().Block(
		jen.For(jen.Id("i").Op(":=").Range().Id("Columns")).Block(
			jen.If(jen.Id("column").Op("==").Id("Columns").Index(jen.Id("i"))).Block(
				jen.Return(jen.True()),
			),
		),
		jen.Return(jen.False()),
	)
	return f
}

// genStatements adds the statement constants. Placeholders follow the
// table column order.
func genStatements(f *jen.File, t *gen.Type) {
	s := t.Statements
	f.Comment(fmt.Sprintf("Statements run by the %s client.", t.Label()))
	f.Const().DefsFunc(func(group *jen.Group) {
		group.Comment("InsertStmt inserts a row. It takes every column.")
		group.Id("InsertStmt").Op("=").Lit(s.Insert)
		group.Comment("SelectStmt selects the row with the given id.")
		group.Id("SelectStmt").Op("=").Lit(s.Select)
		group.Comment("DeleteStmt deletes the row with the given id and version.")
		group.Id("DeleteStmt").Op("=").Lit(s.Delete)
		group.Comment("CountStmt counts the rows of the table.")
		group.Id("CountStmt").Op("=").Lit(s.Count)
		group.Comment("ListStmt selects a page of rows ordered by id. It takes a limit and an offset.")
		group.Id("ListStmt").Op("=").Lit(s.List)
		for _, fd := range t.MutableFields() {
			group.Comment(fmt.Sprintf("%s sets the %s field if the row still has the given version.", fd.UpdateStmt(), fd.Name))
			group.Id(fd.UpdateStmt()).Op("=").Lit(s.Update[fd.Column])
		}
		for _, fd := range t.UniqueFields() {
			group.Comment(fmt.Sprintf("%s selects the row with the given %s.", fd.SelectByStmt(), fd.Name))
			group.Id(fd.SelectByStmt()).Op("=").Lit(s.SelectBy[fd.Column])
		}
		for _, fd := range t.RefFields() {
			group.Comment(fmt.Sprintf("%s selects the rows referencing the given %s id, ordered by id.", fd.ListByStmt(), fd.Ref.Label()))
			group.Id(fd.ListByStmt()).Op("=").Lit(s.ListBy[fd.Column])
		}
	})
}

// genAttributes adds the Attributes variable describing the public
// attributes of the entity. Sensitive attributes are left out.
func genAttributes(h gen.GeneratorHelper, f *jen.File, t *gen.Type) {
	f.Comment(fmt.Sprintf("Attributes describes the public attributes of the %s, in declaration order.", t.Label()))
	f.Var().Id("Attributes").Op("=").Index().Qual(h.CasgenPkg(), "Attribute").ValuesFunc(func(group *jen.Group) {
		for _, fd := range t.Fields {
			if fd.Sensitive {
				continue
			}
			group.Line().Values(jen.DictFunc(func(d jen.Dict) {
				d[jen.Id("Name")] = jen.Lit(fd.Name)
				d[jen.Id("Column")] = jen.Id(fd.Constant())
				d[jen.Id("Type")] = jen.Qual(fieldPkg, fd.Type.ConstName())
				if fd.Ref != nil {
					d[jen.Id("Ref")] = jen.Lit(fd.Ref.Label())
				}
				if fd.Nullable {
					d[jen.Id("Nullable")] = jen.True()
				}
				if fd.Unique {
					d[jen.Id("Unique")] = jen.True()
				}
				if !fd.Immutable {
					d[jen.Id("Mutable")] = jen.True()
				}
			}))
		}
		group.Line()
	})
}
