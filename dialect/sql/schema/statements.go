package schema

import (
	"strings"

	"github.com/syssam/casgen/schema/field"
)

// NextIDStmt increments the identifier counter of an entity and returns the
// new value. The counter row is created on first use, so the first id of
// every entity is 1.
const NextIDStmt = "INSERT INTO `" + SequenceTable + "` (`name`, `value`) VALUES (?, 1) " +
	"ON CONFLICT (`name`) DO UPDATE SET `value` = `value` + 1 RETURNING `value`"

// Statements holds the statements generated clients run against one table.
// Placeholders follow the column order of the table: id, version, then the
// attributes in declaration order.
type Statements struct {
	// Insert takes every column.
	Insert string
	// Select takes the id.
	Select string
	// Delete takes the id and the expected version.
	Delete string
	// Count takes no arguments.
	Count string
	// List takes a limit and an offset. Rows are ordered by id.
	List string
	// Update holds one conditional update per attribute column, keyed by
	// column name. Each takes the new value, the id and the expected
	// version, and increments the version.
	Update map[string]string
	// SelectBy holds one lookup per unique column, keyed by column name.
	SelectBy map[string]string
	// ListBy holds one selection per reference column, keyed by column
	// name. Each takes the referenced id. Rows are ordered by id.
	ListBy map[string]string
}

// Statements returns the statements of the table.
func (t *Table) Statements() *Statements {
	var (
		table   = quote(t.Name)
		columns = make([]string, len(t.Columns))
		holders = make([]string, len(t.Columns))
	)
	for i, c := range t.Columns {
		columns[i] = quote(c.Name)
		holders[i] = "?"
	}
	selectAll := "SELECT " + strings.Join(columns, ", ") + " FROM " + table
	byID := " WHERE " + quote(IDColumn) + " = ?"
	cas := byID + " AND " + quote(VersionColumn) + " = ?"
	s := &Statements{
		Insert:   "INSERT INTO " + table + " (" + strings.Join(columns, ", ") + ") VALUES (" + strings.Join(holders, ", ") + ")",
		Select:   selectAll + byID,
		Delete:   "DELETE FROM " + table + cas,
		Count:    "SELECT COUNT(*) FROM " + table,
		List:     selectAll + " ORDER BY " + quote(IDColumn) + " LIMIT ? OFFSET ?",
		Update:   make(map[string]string),
		SelectBy: make(map[string]string),
		ListBy:   make(map[string]string),
	}
	version := quote(VersionColumn)
	for _, c := range t.AttributeColumns() {
		s.Update[c.Name] = "UPDATE " + table + " SET " + quote(c.Name) + " = ?, " + version + " = " + version + " + 1" + cas
		if c.Unique {
			s.SelectBy[c.Name] = selectAll + " WHERE " + quote(c.Name) + " = ?"
		}
		if c.Type == field.TypeRef {
			s.ListBy[c.Name] = selectAll + " WHERE " + quote(c.Name) + " = ? ORDER BY " + quote(IDColumn)
		}
	}
	return s
}

func quote(ident string) string {
	return "`" + ident + "`"
}
