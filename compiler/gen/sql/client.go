package sql

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/casgen/compiler/gen"
)

// sqliteDriverPkg registers the "sqlite" driver with database/sql.
const sqliteDriverPkg = "modernc.org/sqlite"

// genClient generates the client file (client.go).
func genClient(h gen.GeneratorHelper) *jen.File {
	f := h.NewFile(h.Pkg())
	f.Anon(sqliteDriverPkg)

	genClientStruct(h, f)
	genConfigStruct(h, f)
	genNewClient(h, f)
	genOpen(h, f)
	genClientMethods(h, f)

	return f
}

// genClientStruct generates the Client struct with one field per entity
// client.
func genClientStruct(h gen.GeneratorHelper, f *jen.File) {
	f.Comment("Client is the client that holds all entity clients of the package.")
	f.Type().Id("Client").StructFunc(func(group *jen.Group) {
		group.Id("config")
		for _, t := range h.Graph().Nodes {
			group.Commentf("%s is the client for interacting with the %s entity.", t.Name, t.Name)
			group.Id(t.Name).Op("*").Id(t.ClientName())
		}
	})
}

// genConfigStruct generates the config shared by the entity clients.
func genConfigStruct(h gen.GeneratorHelper, f *jen.File) {
	f.Comment("config is the configuration shared by the client and the entity clients.")
	f.Type().Id("config").Struct(
		jen.Comment("driver used for executing database requests."),
		jen.Id("driver").Qual(h.DialectPkg(), "Driver"),
	)
}

// genNewClient generates the NewClient constructor.
func genNewClient(h gen.GeneratorHelper, f *jen.File) {
	f.Comment("NewClient creates a new client running its statements on the given driver.")
	f.Func().Id("NewClient").Params(jen.Id("drv").Qual(h.DialectPkg(), "Driver")).Op("*").Id("Client").Block(
		jen.Id("c").Op(":=").Id("config").Values(jen.Dict{
			jen.Id("driver"): jen.Id("drv"),
		}),
		jen.Return(jen.Op("&").Id("Client").Values(jen.DictFunc(func(d jen.Dict) {
			d[jen.Id("config")] = jen.Id("c")
			for _, t := range h.Graph().Nodes {
				d[jen.Id(t.Name)] = jen.Id("New" + t.ClientName()).Call(jen.Id("c"))
			}
		}))),
	)
}

// genOpen generates the Open function.
func genOpen(h gen.GeneratorHelper, f *jen.File) {
	f.Comment("Open opens the SQLite database at the given data source name and returns")
	f.Comment("a client for it. Call Install to create the tables of a new database.")
	f.Func().Id("Open").Params(jen.Id("dataSourceName").String()).Params(jen.Op("*").Id("Client"), jen.Error()).Block(
		jen.List(jen.Id("drv"), jen.Err()).Op(":=").Qual(h.SQLPkg(), "Open").Call(
			jen.Qual(h.DialectPkg(), "SQLite"),
			jen.Id("dataSourceName"),
		),
		jen.If(jen.Err().Op("!=").Nil()).Block(
			jen.Return(jen.Nil(), jen.Err()),
		),
		jen.Return(jen.Id("NewClient").Call(jen.Id("drv")), jen.Nil()),
	)
}

// genClientMethods generates Close, Install and Tx.
func genClientMethods(h gen.GeneratorHelper, f *jen.File) {
	f.Comment("Close closes the database connection and prevents new queries from starting.")
	f.Func().Params(jen.Id("c").Op("*").Id("Client")).Id("Close").Params().Error().Block(
		jen.Return(jen.Id("c").Dot("driver").Dot("Close").Call()),
	)

	f.Comment("Install creates the tables of the schema and the id counters. Existing")
	f.Comment("tables are left untouched, so it is safe to call on every start.")
	f.Func().Params(jen.Id("c").Op("*").Id("Client")).Id("Install").Params(
		jen.Id("ctx").Qual("context", "Context"),
	).Error().Block(
		jen.Return(jen.Qual(h.RuntimePkg(), "Install").Call(
			jen.Id("ctx"),
			jen.Id("c").Dot("driver"),
			jen.Id("InstallStatements"),
		)),
	)

	f.Comment("Tx runs fn with a client bound to a new transaction. The transaction is")
	f.Comment("committed if fn returns nil and rolled back otherwise. Creates inside fn")
	f.Comment("run in savepoints of the transaction.")
	f.Func().Params(jen.Id("c").Op("*").Id("Client")).Id("Tx").Params(
		jen.Id("ctx").Qual("context", "Context"),
		jen.Id("fn").Func().Params(jen.Op("*").Id("Client")).Error(),
	).Error().Block(
		jen.Return(jen.Qual(h.RuntimePkg(), "WithTx").Call(
			jen.Id("ctx"),
			jen.Id("c").Dot("driver"),
			jen.Func().Params(jen.Id("tx").Qual(h.DialectPkg(), "Tx")).Error().Block(
				jen.Return(jen.Id("fn").Call(jen.Id("NewClient").Call(
					jen.Qual(h.RuntimePkg(), "TxDriver").Call(jen.Id("tx"), jen.Id("c").Dot("driver").Dot("Dialect").Call()),
				))),
			),
		)),
	)
}
