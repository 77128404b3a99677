package sql

import (
	"fmt"
	"strings"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/casgen/compiler/gen"
)

// genEntity generates the entity struct file ({entity}.go).
func genEntity(h gen.GeneratorHelper, t *gen.Type) *jen.File {
	f := h.NewFile(h.Pkg())

	genEntityStruct(h, f, t)
	genAccessors(h, f, t)
	genString(f, t)
	genMarshalJSON(h, f, t)
	genScanValues(f, t)
	genEntityClient(f, t)

	return f
}

// genEntityStruct generates the entity struct. Fields are unexported, so
// an instance can only be changed through the client.
func genEntityStruct(h gen.GeneratorHelper, f *jen.File, t *gen.Type) {
	f.Commentf("%s is the model entity for the %s schema.", t.Name, t.Name)
	if c := t.Comment(); c != "" {
		comment(f, c)
	}
	f.Comment("//")
	f.Comment("An instance is a snapshot of the stored row at Version. Its setters")
	f.Comment("return a new instance and leave the receiver untouched.")
	f.Type().Id(t.Name).StructFunc(func(group *jen.Group) {
		group.Id("id").Uint64()
		group.Id("version").Uint64()
		for _, fd := range t.Fields {
			group.Id(fd.StructField()).Add(h.GoType(fd))
		}
	})
}

// genAccessors generates the ID and Version accessors and one getter per
// field. Getters of nullable fields return a copy.
func genAccessors(h gen.GeneratorHelper, f *jen.File, t *gen.Type) {
	r := t.Receiver()

	f.Comment("ID returns the identifier of the instance.")
	f.Func().Params(jen.Id(r).Op("*").Id(t.Name)).Id("ID").Params().Uint64().Block(
		jen.Return(jen.Id(r).Dot("id")),
	)
	f.Comment("Version returns the version the instance was read or written at.")
	f.Func().Params(jen.Id(r).Op("*").Id(t.Name)).Id("Version").Params().Uint64().Block(
		jen.Return(jen.Id(r).Dot("version")),
	)

	for _, fd := range t.Fields {
		value := jen.Id(r).Dot(fd.StructField())
		switch {
		case fd.Comment != "":
			comment(f, fmt.Sprintf("%s returns the value of the %q field. %s", fd.StructName(), fd.Name, fd.Comment))
		case fd.Ref != nil:
			f.Commentf("%s returns the id of the referenced %s.", fd.StructName(), fd.Ref.Name)
		default:
			f.Commentf("%s returns the value of the %q field.", fd.StructName(), fd.Name)
		}
		if fd.Nullable {
			f.Comment("It returns nil if the field holds no value.")
			value = jen.Id("clone").Call(value)
		}
		f.Func().Params(jen.Id(r).Op("*").Id(t.Name)).Id(fd.StructName()).Params().Add(h.GoType(fd)).Block(
			jen.Return(value),
		)
	}
}

// genString generates the String method. Sensitive fields are redacted.
func genString(f *jen.File, t *gen.Type) {
	r := t.Receiver()
	sprintf := func(v jen.Code) *jen.Statement {
		return jen.Id("builder").Dot("WriteString").Call(jen.Qual("fmt", "Sprintf").Call(jen.Lit("%v"), v))
	}
	f.Comment("String implements the fmt.Stringer.")
	f.Func().Params(jen.Id(r).Op("*").Id(t.Name)).Id("String").Params().String().BlockFunc(func(group *jen.Group) {
		group.Var().Id("builder").Qual("strings", "Builder")
		group.Id("builder").Dot("WriteString").Call(jen.Lit(t.Name + "("))
		group.Id("builder").Dot("WriteString").Call(jen.Qual("fmt", "Sprintf").Call(
			jen.Lit("id=%v, version=%v"),
			jen.Id(r).Dot("id"),
			jen.Id(r).Dot("version"),
		))
		for _, fd := range t.Fields {
			group.Id("builder").Dot("WriteString").Call(jen.Lit(", " + fd.Name + "="))
			switch {
			case fd.Sensitive:
				group.Id("builder").Dot("WriteString").Call(jen.Lit("<sensitive>"))
			case fd.Nullable:
				group.If(jen.Id("v").Op(":=").Id(r).Dot(fd.StructField()), jen.Id("v").Op("!=").Nil()).Block(
					sprintf(jen.Op("*").Id("v")),
				).Else().Block(
					jen.Id("builder").Dot("WriteString").Call(jen.Lit("<nil>")),
				)
			default:
				group.Add(sprintf(jen.Id(r).Dot(fd.StructField())))
			}
		}
		group.Id("builder").Dot("WriteByte").Call(jen.LitRune(')'))
		group.Return(jen.Id("builder").Dot("String").Call())
	})
}

// genMarshalJSON generates the MarshalJSON method. Sensitive fields are
// omitted.
func genMarshalJSON(h gen.GeneratorHelper, f *jen.File, t *gen.Type) {
	r := t.Receiver()
	var fields []*gen.Field
	for _, fd := range t.Fields {
		if !fd.Sensitive {
			fields = append(fields, fd)
		}
	}
	f.Comment("MarshalJSON implements the json.Marshaler interface.")
	f.Func().Params(jen.Id(r).Op("*").Id(t.Name)).Id("MarshalJSON").Params().Params(jen.Index().Byte(), jen.Error()).Block(
		jen.Return(jen.Qual("encoding/json", "Marshal").Call(
			jen.StructFunc(func(group *jen.Group) {
				group.Id("ID").Uint64().Tag(map[string]string{"json": "id"})
				group.Id("Version").Uint64().Tag(map[string]string{"json": "version"})
				for _, fd := range fields {
					group.Id(fd.StructName()).Add(h.GoType(fd)).Tag(map[string]string{"json": fd.JSONKey()})
				}
			}).Values(jen.DictFunc(func(d jen.Dict) {
				d[jen.Id("ID")] = jen.Id(r).Dot("id")
				d[jen.Id("Version")] = jen.Id(r).Dot("version")
				for _, fd := range fields {
					d[jen.Id(fd.StructName())] = jen.Id(r).Dot(fd.StructField())
				}
			})),
		)),
	)
}

// genScanValues generates the scan destinations of a row, in table column
// order.
func genScanValues(f *jen.File, t *gen.Type) {
	r := t.Receiver()
	f.Comment("scanValues returns the scan destinations of a row of the table.")
	f.Func().Params(jen.Id(r).Op("*").Id(t.Name)).Id("scanValues").Params().Index().Any().Block(
		jen.Return(jen.Index().Any().ValuesFunc(func(group *jen.Group) {
			group.Op("&").Id(r).Dot("id")
			group.Op("&").Id(r).Dot("version")
			for _, fd := range t.Fields {
				group.Op("&").Id(r).Dot(fd.StructField())
			}
		})),
	)
}

// genEntityClient generates the entity client type. Its operations are
// spread over the create, query, update and delete files.
func genEntityClient(f *jen.File, t *gen.Type) {
	client := t.ClientName()
	f.Commentf("%s is a client for the %s schema.", client, t.Name)
	f.Type().Id(client).Struct(
		jen.Id("config"),
	)

	f.Commentf("New%s returns a client for the %s from the given config.", client, t.Name)
	f.Func().Id("New"+client).Params(jen.Id("c").Id("config")).Op("*").Id(client).Block(
		jen.Return(jen.Op("&").Id(client).Values(jen.Dict{
			jen.Id("config"): jen.Id("c"),
		})),
	)
}

// comment adds a comment of possibly several lines. Jennifer renders
// multi-line comments as a block comment.
func comment(f *jen.File, text string) {
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		if line = strings.TrimSpace(line); line == "" {
			line = "//"
		}
		f.Comment(line)
	}
}
