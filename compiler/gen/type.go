package gen

import (
	"context"
	"fmt"
	"strings"

	"github.com/syssam/casgen/compiler/load"
	"github.com/syssam/casgen/internal/naming"
	"github.com/syssam/casgen/schema"
	"github.com/syssam/casgen/schema/field"

	sqlschema "github.com/syssam/casgen/dialect/sql/schema"
)

// The following types and their exported methods used by the codegen
// to generate the assets.
type (
	// Graph holds the nodes of the schema and the storage shape shared
	// by all of them.
	Graph struct {
		*Config
		// Schema is the validated schema the graph was built from.
		Schema *schema.Schema
		// Nodes are the types of the graph in declaration order.
		Nodes []*Type
		// Tables are the storage tables of Nodes, in the same order.
		Tables []*sqlschema.Table
		// Install holds the install DDL, sequence table first.
		Install []string
		// Snapshot is the canonical JSON of the schema description.
		Snapshot []byte
	}

	// Type represents one entity of the graph and the information it holds.
	Type struct {
		*Config
		graph *Graph
		// Name holds the Go type name of the entity.
		Name string
		// Entity is the validated entity definition.
		Entity *schema.Entity
		// Table is the storage table of the entity.
		Table *sqlschema.Table
		// Statements are the statements the entity client runs.
		Statements *sqlschema.Statements
		// Fields holds the attributes of the entity in declaration order.
		Fields []*Field
		// Referrers are the reference fields of the graph pointing to
		// the entity, in declaration order.
		Referrers []*Field
	}

	// Field holds the information of an entity attribute used by the
	// emitters.
	Field struct {
		typ *Type
		// Name is the attribute name as declared.
		Name string
		// Type is the attribute type.
		Type field.Type
		// Column is the storage column of the attribute.
		Column string
		// Nullable indicates that the field may hold no value. It is a
		// pointer in the generated entity.
		Nullable bool
		// Unique indicates a unique index and a LoadBy loader.
		Unique bool
		// Immutable indicates that no setter is generated.
		Immutable bool
		// Sensitive indicates that the value is redacted from String
		// and omitted from JSON.
		Sensitive bool
		// Comment of the attribute.
		Comment string
		// Ref is the referenced type of a reference field.
		Ref *Type
		// backQuerier is the name of the loader of the referencing
		// instances, set on reference fields.
		backQuerier string
	}
)

// NewGraph creates the graph of the given schema. It maps every entity to
// its table, plans the install DDL and snapshots the description.
func NewGraph(c *Config, s *schema.Schema) (*Graph, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	tables, err := sqlschema.NewTables(s)
	if err != nil {
		return nil, NewGenerationError("graph", "", "map tables", err)
	}
	install, err := sqlschema.InstallStatements(context.Background(), tables)
	if err != nil {
		return nil, NewGenerationError("graph", "", "plan install statements", err)
	}
	snapshot, err := load.MarshalSnapshot(s)
	if err != nil {
		return nil, NewGenerationError("graph", "", "snapshot schema", err)
	}
	g := &Graph{
		Config:   c,
		Schema:   s,
		Tables:   tables,
		Install:  install,
		Snapshot: snapshot,
	}
	byEntity := make(map[*schema.Entity]*Type)
	dirs := make(map[string]string)
	for i, e := range s.Entities() {
		t := &Type{
			Config:     c,
			graph:      g,
			Name:       naming.Pascal(e.Name()),
			Entity:     e,
			Table:      tables[i],
			Statements: tables[i].Statements(),
		}
		dir := t.PackageDir()
		if dir == c.PackageName() {
			return nil, NewConfigError("Package", c.Package, "package name collides with the package of entity "+e.Name())
		}
		if other, ok := dirs[dir]; ok {
			return nil, NewGenerationError("graph", dir, "entities "+other+" and "+e.Name()+" share a package directory", nil)
		}
		dirs[dir] = e.Name()
		byEntity[e] = t
		g.Nodes = append(g.Nodes, t)
	}
	for _, t := range g.Nodes {
		for _, a := range t.Entity.Attributes() {
			f := &Field{
				typ:       t,
				Name:      a.Name(),
				Type:      a.Type(),
				Column:    a.Column(),
				Nullable:  a.Nullable(),
				Unique:    a.Unique(),
				Immutable: a.Immutable(),
				Sensitive: a.Sensitive(),
				Comment:   a.Comment(),
			}
			if ref := a.Ref(); ref != nil {
				f.Ref = byEntity[ref]
				f.Ref.Referrers = append(f.Ref.Referrers, f)
			}
			t.Fields = append(t.Fields, f)
		}
	}
	for _, t := range g.Nodes {
		if err := t.nameBackQueriers(); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// nameBackQueriers names the loaders of the instances referencing t. A type
// referencing t through a single field gets Query<Plural>, otherwise one
// Query<Plural>By<Field> per field. Names must not collide with the
// reference loaders of t.
func (t *Type) nameBackQueriers() error {
	count := make(map[*Type]int)
	for _, f := range t.Referrers {
		count[f.typ]++
	}
	names := make(map[string]string)
	for _, f := range t.RefFields() {
		names[f.Querier()] = "field " + f.Name
	}
	for _, f := range t.Referrers {
		name := "Query" + naming.Plural(f.typ.Name)
		if count[f.typ] > 1 {
			name += "By" + f.StructName()
		}
		if prev, ok := names[name]; ok {
			return NewGenerationError("graph", t.Name, fmt.Sprintf("loader %s of %s.%s collides with the loader of %s", name, f.typ.Name, f.Name, prev), nil)
		}
		names[name] = "reference " + f.typ.Name + "." + f.Name
		f.backQuerier = name
	}
	return nil
}

// CheckTypes returns an *UnsupportedTypeError for the first field whose
// type has no Go mapping.
func (g *Graph) CheckTypes() error {
	for _, t := range g.Nodes {
		for _, f := range t.Fields {
			if !f.Type.Valid() || f.Type == field.TypeRef && f.Ref == nil {
				return NewUnsupportedTypeError(t.Name, f.Name, f.Type)
			}
		}
	}
	return nil
}

// Label returns the label of the type. It keys the identifier counter.
func (t Type) Label() string {
	if t.Entity != nil {
		return t.Entity.Label()
	}
	return naming.Label(t.Name)
}

// TableName returns the SQL table name of the type.
func (t Type) TableName() string {
	if t.Table != nil {
		return t.Table.Name
	}
	return naming.Table(t.Name)
}

// Comment returns the entity comment.
func (t Type) Comment() string {
	if t.Entity != nil {
		return t.Entity.Comment()
	}
	return ""
}

// Package returns the package name of the entity subpackage.
func (t Type) Package() string {
	return strings.ToLower(t.Name)
}

// PackageDir returns the name of the package directory.
func (t Type) PackageDir() string { return strings.ToLower(t.Name) }

// FileName returns the base name of the files generated for the type.
func (t Type) FileName() string { return naming.Snake(t.Name) }

// Receiver returns the receiver name of this node. It makes sure the
// receiver names doesn't conflict with import names.
func (t Type) Receiver() string {
	return naming.Receiver(t.Name)
}

// Param returns the parameter name of an instance of the type in client
// methods. It is the receiver name unless that shadows a package.
func (t Type) Param() string {
	name := t.Receiver()
	if _, ok := locals[name]; ok {
		return "_" + name
	}
	if t.graph != nil {
		for _, n := range t.graph.Nodes {
			if name == n.Package() {
				return "_" + name
			}
		}
	}
	return name
}

// ClientName returns the struct name denoting the client of this type.
func (t Type) ClientName() string {
	return t.Name + "Client"
}

// CreateName returns the name of the input struct of CreateBulk.
func (t Type) CreateName() string {
	return t.Name + "Create"
}

// Validator returns the name of the function checking instances before
// they are written, or an empty string.
func (t Type) Validator() string {
	if t.Entity != nil {
		return t.Entity.Validator()
	}
	return ""
}

// MutableFields returns the fields that have a setter.
func (t Type) MutableFields() []*Field {
	var fields []*Field
	for _, f := range t.Fields {
		if !f.Immutable {
			fields = append(fields, f)
		}
	}
	return fields
}

// UniqueFields returns the fields that have a LoadBy loader.
func (t Type) UniqueFields() []*Field {
	var fields []*Field
	for _, f := range t.Fields {
		if f.Unique {
			fields = append(fields, f)
		}
	}
	return fields
}

// RefFields returns the reference fields of the type.
func (t Type) RefFields() []*Field {
	var fields []*Field
	for _, f := range t.Fields {
		if f.Ref != nil {
			fields = append(fields, f)
		}
	}
	return fields
}

// StructField returns the name of the unexported struct field holding
// the value.
func (f Field) StructField() string {
	name := naming.Camel(f.Name)
	if naming.Keyword(name) {
		name += "_"
	}
	return name
}

// StructName returns the exported name of the field, used by getters and
// in generated identifiers.
func (f Field) StructName() string { return naming.Pascal(f.Name) }

// Constant returns the constant name of the field column.
func (f Field) Constant() string { return "Field" + f.StructName() }

// Setter returns the name of the CAS setter.
func (f Field) Setter() string { return "Set" + f.StructName() }

// Loader returns the name of the unique loader.
func (f Field) Loader() string { return "LoadBy" + f.StructName() }

// Querier returns the name of the reference loader.
func (f Field) Querier() string { return "Query" + f.StructName() }

// BackQuerier returns the name of the loader of the instances referencing
// a given instance through f. It is a method of the client of f.Ref.
func (f Field) BackQuerier() string { return f.backQuerier }

// ListByStmt returns the name of the statement selecting the rows
// referencing a given id through f.
func (f Field) ListByStmt() string { return "ListBy" + f.StructName() + "Stmt" }

// UpdateStmt returns the name of the update statement constant.
func (f Field) UpdateStmt() string { return "Update" + f.StructName() + "Stmt" }

// SelectByStmt returns the name of the unique lookup statement constant.
func (f Field) SelectByStmt() string { return "SelectBy" + f.StructName() + "Stmt" }

// Op returns the operation name reported in errors of the setter.
func (f Field) Op() string { return "update " + f.Name }

// Param returns the parameter name of the field in generated functions.
// Names clashing with Go keywords, imported packages, entity packages or
// locals of the generated code get an underscore prefix.
func (f Field) Param() string {
	name := naming.Camel(f.Name)
	if naming.Keyword(name) || f.clashes(name) {
		name = "_" + name
	}
	return name
}

// imported packages and locals used by generated function bodies.
var locals = map[string]struct{}{
	"c": {}, "ctx": {}, "err": {}, "id": {}, "v": {}, "next": {}, "builder": {},
	"vs": {}, "row": {}, "rows": {}, "i": {}, "ids": {},
	"context": {}, "casgen": {}, "runtime": {}, "dialect": {}, "sql": {},
	"fmt": {}, "json": {}, "strings": {}, "slog": {},
}

func (f Field) clashes(name string) bool {
	if _, ok := locals[name]; ok {
		return true
	}
	if f.typ == nil {
		return false
	}
	if name == f.typ.Receiver() || name == f.typ.Param() {
		return true
	}
	if f.typ.graph != nil {
		for _, t := range f.typ.graph.Nodes {
			if name == t.Package() {
				return true
			}
		}
	}
	return false
}

// JSONKey returns the key of the field in the JSON encoding.
func (f Field) JSONKey() string { return f.Name }

// Owner returns the type holding the field.
func (f Field) Owner() *Type { return f.typ }
