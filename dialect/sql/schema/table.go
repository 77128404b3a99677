// Package schema maps validated entities to SQLite tables: column shapes,
// the statements generated clients execute, and the install DDL.
package schema

import (
	"fmt"

	entity "github.com/syssam/casgen/schema"
	"github.com/syssam/casgen/schema/field"
)

// Names of the columns every entity table has.
const (
	IDColumn      = "id"
	VersionColumn = "version"
)

// SequenceTable holds one identifier counter per entity label.
const SequenceTable = entity.SequenceTable

type (
	// Table describes the table of one entity.
	Table struct {
		Name        string
		Entity      string // Entity label.
		Columns     []*Column
		PrimaryKey  []*Column
		Indexes     []*Index
		ForeignKeys []*ForeignKey
	}

	// Column describes a table column.
	Column struct {
		Name      string
		Attribute string // Attribute name, empty for id and version.
		Type      field.Type
		Nullable  bool
		Unique    bool
	}

	// Index describes a table index.
	Index struct {
		Name    string
		Unique  bool
		Columns []*Column
	}

	// ForeignKey describes a reference column.
	ForeignKey struct {
		Symbol     string
		Columns    []*Column
		RefTable   *Table
		RefColumns []*Column
	}
)

// SQLType returns the SQLite column type of the column.
func (c *Column) SQLType() string {
	return ColumnType(c.Type)
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// AttributeColumns returns the columns backing attributes, in declaration
// order.
func (t *Table) AttributeColumns() []*Column {
	return t.Columns[min(len(t.Columns), 2):]
}

// ColumnType returns the SQLite column type storing values of the given
// attribute type. It returns an empty string for unknown types.
func ColumnType(t field.Type) string {
	switch t {
	case field.TypeInt, field.TypeRef:
		return "integer"
	case field.TypeText:
		return "text"
	case field.TypeBool:
		return "smallint"
	case field.TypeFloat:
		return "real"
	default:
		return ""
	}
}

// NewTable returns the table of a single entity. Foreign keys of reference
// attributes are left unresolved, use NewTables to resolve them.
func NewTable(e *entity.Entity) (*Table, error) {
	t := &Table{Name: e.Table(), Entity: e.Label()}
	id := &Column{Name: IDColumn, Type: field.TypeInt}
	t.Columns = append(t.Columns, id, &Column{Name: VersionColumn, Type: field.TypeInt})
	t.PrimaryKey = []*Column{id}
	for _, a := range e.Attributes() {
		if ColumnType(a.Type()) == "" {
			return nil, fmt.Errorf("dialect/sql/schema: attribute %s.%s: no column type for %s", e.Name(), a.Name(), a.Type())
		}
		c := &Column{
			Name:      a.Column(),
			Attribute: a.Name(),
			Type:      a.Type(),
			Nullable:  a.Nullable(),
			Unique:    a.Unique(),
		}
		t.Columns = append(t.Columns, c)
		if c.Unique {
			t.Indexes = append(t.Indexes, &Index{
				Name:    fmt.Sprintf("%s_%s_key", t.Name, c.Name),
				Unique:  true,
				Columns: []*Column{c},
			})
		}
	}
	return t, nil
}

// NewTables returns the tables of all entities in declaration order, with
// foreign keys resolved.
func NewTables(s *entity.Schema) ([]*Table, error) {
	var (
		tables  []*Table
		byLabel = make(map[string]*Table)
	)
	for _, e := range s.Entities() {
		t, err := NewTable(e)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
		byLabel[e.Label()] = t
	}
	for i, e := range s.Entities() {
		t := tables[i]
		for _, a := range e.Attributes() {
			if a.Ref() == nil {
				continue
			}
			ref := byLabel[a.Ref().Label()]
			c, _ := t.Column(a.Column())
			t.ForeignKeys = append(t.ForeignKeys, &ForeignKey{
				Symbol:     fmt.Sprintf("%s_%s_fkey", t.Name, c.Name),
				Columns:    []*Column{c},
				RefTable:   ref,
				RefColumns: ref.PrimaryKey,
			})
		}
	}
	if err := ValidateSchema(tables).Err(); err != nil {
		return nil, fmt.Errorf("dialect/sql/schema: invalid tables: %w", err)
	}
	return tables, nil
}
