package schema

import (
	"context"
	"fmt"
	"strings"

	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"
)

// Atlas returns the atlas representation of the table. Foreign keys are
// resolved against refs, keyed by table name. A nil refs leaves them out.
func (t *Table) Atlas(refs map[string]*schema.Table) *schema.Table {
	at := schema.NewTable(t.Name)
	for _, c := range t.Columns {
		at.AddColumns(atlasColumn(c))
	}
	pk := make([]*schema.Column, 0, len(t.PrimaryKey))
	for _, c := range t.PrimaryKey {
		col, _ := at.Column(c.Name)
		pk = append(pk, col)
	}
	at.SetPrimaryKey(schema.NewPrimaryKey(pk...))
	for _, idx := range t.Indexes {
		ai := schema.NewIndex(idx.Name)
		if idx.Unique {
			ai = schema.NewUniqueIndex(idx.Name)
		}
		for _, c := range idx.Columns {
			col, _ := at.Column(c.Name)
			ai.AddColumns(col)
		}
		at.AddIndexes(ai)
	}
	if refs != nil {
		t.addForeignKeys(at, refs)
	}
	return at
}

func (t *Table) addForeignKeys(at *schema.Table, refs map[string]*schema.Table) {
	for _, fk := range t.ForeignKeys {
		ref, ok := refs[fk.RefTable.Name]
		if !ok {
			continue
		}
		afk := schema.NewForeignKey(fk.Symbol).SetRefTable(ref)
		for _, c := range fk.Columns {
			col, _ := at.Column(c.Name)
			afk.AddColumns(col)
		}
		for _, c := range fk.RefColumns {
			col, _ := ref.Column(c.Name)
			afk.AddRefColumns(col)
		}
		at.AddForeignKeys(afk)
	}
}

func atlasColumn(c *Column) *schema.Column {
	typ := c.SQLType()
	switch typ {
	case "text":
		if c.Nullable {
			return schema.NewNullStringColumn(c.Name, typ)
		}
		return schema.NewStringColumn(c.Name, typ)
	case "real":
		if c.Nullable {
			return schema.NewNullFloatColumn(c.Name, typ)
		}
		return schema.NewFloatColumn(c.Name, typ)
	default:
		if c.Nullable {
			return schema.NewNullIntColumn(c.Name, typ)
		}
		return schema.NewIntColumn(c.Name, typ)
	}
}

func sequenceTable() *schema.Table {
	name := schema.NewStringColumn("name", "text")
	return schema.NewTable(SequenceTable).
		AddColumns(name, schema.NewIntColumn("value", "integer")).
		SetPrimaryKey(schema.NewPrimaryKey(name))
}

// Prefixes of the planned statements that take an IF NOT EXISTS clause.
var createPrefixes = []string{"CREATE TABLE ", "CREATE UNIQUE INDEX ", "CREATE INDEX "}

// InstallStatements returns the DDL creating the identifier counter table
// and the given tables. Every statement is idempotent, so the result may run
// against a database that was already installed.
func InstallStatements(ctx context.Context, tables []*Table) ([]string, error) {
	var (
		refs    = make(map[string]*schema.Table, len(tables))
		changes = []schema.Change{&schema.AddTable{T: sequenceTable()}}
	)
	// All tables are built before foreign keys are added, so references may
	// point forward.
	for _, t := range tables {
		refs[t.Name] = t.Atlas(nil)
	}
	for _, t := range tables {
		at := refs[t.Name]
		t.addForeignKeys(at, refs)
		changes = append(changes, &schema.AddTable{T: at})
	}
	plan, err := sqlite.DefaultPlan.PlanChanges(ctx, "install", changes)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql/schema: plan install: %w", err)
	}
	stmts := make([]string, 0, len(plan.Changes))
	for _, c := range plan.Changes {
		stmts = append(stmts, ifNotExists(c.Cmd))
	}
	return stmts, nil
}

func ifNotExists(cmd string) string {
	for _, p := range createPrefixes {
		if strings.HasPrefix(cmd, p) {
			return p + "IF NOT EXISTS " + cmd[len(p):]
		}
	}
	return cmd
}
