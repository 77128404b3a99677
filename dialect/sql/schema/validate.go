package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/syssam/casgen/schema/field"
)

// ValidationError is one problem found on a table layout.
type ValidationError struct {
	Table   string
	Column  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult collects the problems of one or more tables. Errors make
// a layout unusable by the generated clients, warnings do not.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors reports whether the layout is unusable.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings reports whether any warning was raised.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Err returns the errors of r joined, or nil.
func (r *ValidationResult) Err() error {
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

func (r *ValidationResult) String() string {
	if !r.HasErrors() && !r.HasWarnings() {
		return "No issues found.\n"
	}
	var b strings.Builder
	for _, s := range []struct {
		title string
		list  []*ValidationError
	}{
		{"Errors", r.Errors},
		{"Warnings", r.Warnings},
	} {
		if len(s.list) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s:\n", s.title)
		for _, e := range s.list {
			fmt.Fprintf(&b, "  - %s\n", e)
		}
	}
	return b.String()
}

func (r *ValidationResult) errorf(t *Table, column, format string, args ...any) {
	r.Errors = append(r.Errors, &ValidationError{Table: t.Name, Column: column, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) warnf(t *Table, column, format string, args ...any) {
	r.Warnings = append(r.Warnings, &ValidationError{Table: t.Name, Column: column, Message: fmt.Sprintf(format, args...)})
}

func (r *ValidationResult) merge(o *ValidationResult) {
	r.Errors = append(r.Errors, o.Errors...)
	r.Warnings = append(r.Warnings, o.Warnings...)
}

// ValidateTable checks the layout the generated clients rely on: the id
// primary key followed by the version counter, then one column per
// attribute with its unique index and foreign key.
func ValidateTable(t *Table) *ValidationResult {
	r := &ValidationResult{}
	if len(t.PrimaryKey) != 1 || t.PrimaryKey[0].Name != IDColumn {
		r.errorf(t, "", "primary key must be the id column")
	}
	if len(t.Columns) < 2 || t.Columns[1].Name != VersionColumn {
		r.errorf(t, "", "missing version column")
	} else if v := t.Columns[1]; v.Nullable || v.Type != field.TypeInt {
		r.errorf(t, VersionColumn, "version must be a non-null integer")
	}

	columns := make(map[string]*Column, len(t.Columns))
	for _, c := range t.Columns {
		if _, ok := columns[c.Name]; ok {
			r.errorf(t, c.Name, "duplicate column name")
		}
		columns[c.Name] = c
	}

	indexed := make(map[string]bool)
	names := make(map[string]bool)
	for _, idx := range t.Indexes {
		if names[idx.Name] {
			r.errorf(t, "", "duplicate index name: %s", idx.Name)
		}
		names[idx.Name] = true
		for _, c := range idx.Columns {
			if c == nil || columns[c.Name] == nil {
				r.errorf(t, "", "index %q covers an unknown column", idx.Name)
				continue
			}
			if idx.Unique && len(idx.Columns) == 1 {
				indexed[c.Name] = true
			}
		}
	}

	references := make(map[string]bool)
	for _, fk := range t.ForeignKeys {
		for _, c := range fk.Columns {
			switch {
			case columns[c.Name] == nil:
				r.errorf(t, "", "foreign key references non-existent column %q", c.Name)
			case c.Type != field.TypeRef:
				r.errorf(t, c.Name, "foreign key column must be a reference")
			default:
				references[c.Name] = true
			}
		}
		if len(fk.RefColumns) > 0 && (len(fk.RefColumns) != 1 || fk.RefColumns[0].Name != IDColumn) {
			r.errorf(t, "", "foreign key %q must reference the id column", fk.Symbol)
		}
	}

	for _, c := range t.AttributeColumns() {
		if c.Unique && !indexed[c.Name] {
			r.errorf(t, c.Name, "unique column has no unique index")
		}
		if c.Unique && c.Nullable {
			r.warnf(t, c.Name, "unique nullable column admits several NULL values")
		}
		if c.Type == field.TypeRef && !references[c.Name] {
			r.errorf(t, c.Name, "reference column has no foreign key")
		}
	}
	return r
}

// ValidateSchema validates every table and the references between them.
// Table names must be unique and must not collide with the sequence table.
func ValidateSchema(tables []*Table) *ValidationResult {
	r := &ValidationResult{}
	known := make(map[*Table]bool, len(tables))
	names := make(map[string]bool, len(tables)+1)
	names[SequenceTable] = true
	for _, t := range tables {
		if names[t.Name] {
			r.errorf(t, "", "duplicate table name")
		}
		names[t.Name] = true
		known[t] = true
	}
	for _, t := range tables {
		r.merge(ValidateTable(t))
		for _, fk := range t.ForeignKeys {
			if fk.RefTable == nil || !known[fk.RefTable] {
				r.errorf(t, "", "foreign key %q references an unknown table", fk.Symbol)
			}
		}
	}
	return r
}
