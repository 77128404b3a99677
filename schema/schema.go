package schema

import (
	"fmt"
	"go/token"
	"regexp"
	"strings"

	"github.com/syssam/casgen/internal/naming"
	"github.com/syssam/casgen/schema/field"
)

// SequenceTable is the table holding the per-entity identifier counters.
// Entities may not map to it.
const SequenceTable = "casgen_sequences"

type (
	// Schema is a validated set of entities. It is created by New and is
	// never modified afterwards.
	Schema struct {
		entities []*Entity
		byName   map[string]*Entity
	}

	// Entity is a validated entity definition.
	Entity struct {
		name      string
		table     string
		comment   string
		category  string
		validator string // Function of the generated package.
		attrs     []*Attribute
		byName    map[string]*Attribute
	}

	// Attribute is a validated attribute definition.
	Attribute struct {
		name      string
		typ       field.Type
		nullable  bool
		unique    bool
		immutable bool
		sensitive bool
		comment   string
		ref       *Entity
		entity    *Entity
	}
)

// Entities returns the entities in declaration order.
func (s *Schema) Entities() []*Entity {
	return append([]*Entity(nil), s.entities...)
}

// Entity returns the entity with the given name.
func (s *Schema) Entity(name string) (*Entity, bool) {
	e, ok := s.byName[name]
	return e, ok
}

// Description returns the canonical description of the schema. Building a
// schema from the returned description yields an equal schema.
func (s *Schema) Description() *Description {
	d := &Description{Entities: make([]EntityDescription, 0, len(s.entities))}
	for _, e := range s.entities {
		ed := EntityDescription{
			Name:       e.name,
			Comment:    e.comment,
			Category:   e.category,
			Validator:  e.validator,
			Attributes: make([]AttributeDescription, 0, len(e.attrs)),
		}
		if e.table != naming.Table(e.name) {
			ed.Table = e.table
		}
		for _, a := range e.attrs {
			ad := AttributeDescription{
				Name:      a.name,
				Type:      a.typ.String(),
				Nullable:  a.nullable,
				Unique:    a.unique,
				Immutable: a.immutable,
				Sensitive: a.sensitive,
				Comment:   a.comment,
			}
			if a.ref != nil {
				ad.Ref = a.ref.name
			}
			ed.Attributes = append(ed.Attributes, ad)
		}
		d.Entities = append(d.Entities, ed)
	}
	return d
}

// Name returns the entity name as declared.
func (e *Entity) Name() string { return e.name }

// Label returns the snake_case label of the entity. It keys the identifier
// counter of the entity.
func (e *Entity) Label() string { return naming.Label(e.name) }

// Table returns the table name of the entity.
func (e *Entity) Table() string { return e.table }

// Comment returns the entity comment.
func (e *Entity) Comment() string { return e.comment }

// Category returns the documentation category of the entity.
func (e *Entity) Category() string { return e.category }

// Validator returns the name of the function checking instances of the
// entity before they are written, or an empty string.
func (e *Entity) Validator() string { return e.validator }

// Attributes returns the attributes in declaration order.
func (e *Entity) Attributes() []*Attribute {
	return append([]*Attribute(nil), e.attrs...)
}

// Attribute returns the attribute with the given name.
func (e *Entity) Attribute(name string) (*Attribute, bool) {
	a, ok := e.byName[name]
	return a, ok
}

// Name returns the attribute name as declared.
func (a *Attribute) Name() string { return a.name }

// Column returns the column name of the attribute.
func (a *Attribute) Column() string { return naming.Snake(a.name) }

// Type returns the attribute type.
func (a *Attribute) Type() field.Type { return a.typ }

// Nullable reports if the attribute may hold no value.
func (a *Attribute) Nullable() bool { return a.nullable }

// Unique reports if the attribute values are unique across the entity table.
func (a *Attribute) Unique() bool { return a.unique }

// Immutable reports if the attribute cannot be changed after creation.
func (a *Attribute) Immutable() bool { return a.immutable }

// Sensitive reports if the attribute value must not be printed.
func (a *Attribute) Sensitive() bool { return a.sensitive }

// Comment returns the attribute comment.
func (a *Attribute) Comment() string { return a.comment }

// Ref returns the referenced entity of a reference attribute, or nil.
func (a *Attribute) Ref() *Entity { return a.ref }

// Entity returns the entity owning the attribute.
func (a *Attribute) Entity() *Entity { return a.entity }

var tableRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Names generated for every schema, which entity type names must not reuse.
var globalIdent = map[string]struct{}{
	"Client":            {},
	"Tx":                {},
	"Config":            {},
	"NotFoundError":     {},
	"ConflictError":     {},
	"StorageError":      {},
	"ConstraintError":   {},
	"Versioned":         {},
	"RollbackError":     {},
	"NewClient":         {},
	"Open":              {},
	"Close":             {},
	"Install":           {},
	"Snapshot":          {},
	"InstallStatements": {},
	"ErrNotFound":       {},
	"ErrStaleVersion":   {},
	"ErrStorage":        {},
	"ErrInvariant":      {},
	"ErrValidation":     {},
	"ValidationError":   {},
	"IsNotFound":        {},
	"IsStaleVersion":    {},
	"IsStorageError":    {},
	"IsConstraintError": {},
	"IsValidationError": {},
}

// Suffixes of the names generated per entity: the entity client and the
// bulk create input.
var entitySuffixes = []string{"Client", "Create"}

// Imports and locals of generated code, which entity package names must
// not shadow.
var reservedPkg = map[string]struct{}{
	"c": {}, "ctx": {}, "err": {}, "id": {}, "v": {}, "vs": {}, "row": {},
	"offset": {}, "limit": {}, "drv": {}, "fn": {}, "tx": {}, "clone": {},
	"i": {}, "rows": {}, "ids": {},
	"config": {}, "builder": {}, "context": {}, "casgen": {}, "runtime": {},
	"dialect": {}, "sql": {}, "fmt": {}, "json": {}, "strings": {},
}

// Names of the generated accessors every entity has.
var reservedAttr = map[string]struct{}{
	"ID":          {},
	"Version":     {},
	"String":      {},
	"MarshalJSON": {},
	"ScanValues":  {},
}

// New validates the description and returns the schema it describes. It
// never returns a partial schema: on failure the returned *Error enumerates
// every issue found.
func New(d *Description) (*Schema, error) {
	var (
		serr   = &Error{}
		s      = &Schema{byName: make(map[string]*Entity)}
		keys   = make(map[string]string)
		tables = make(map[string]string)
		refs   = make(map[*Attribute]string)
	)
	if d == nil {
		d = &Description{}
	}
	for i, ed := range d.Entities {
		e := &Entity{
			name:      ed.Name,
			comment:   ed.Comment,
			category:  ed.Category,
			validator: ed.Validator,
			byName:    make(map[string]*Attribute),
		}
		pos := ed.Name
		switch {
		case strings.TrimSpace(ed.Name) == "":
			pos = fmt.Sprintf("#%d", i+1)
			serr.add(EmptyEntityName, pos, "", "entity %d has no name", i+1)
		case checkEntityName(ed.Name) != nil:
			serr.add(InvalidName, pos, "", "%v", checkEntityName(ed.Name))
		default:
			e.table = ed.Table
			if e.table == "" {
				e.table = naming.Table(ed.Name)
			}
			key := strings.ToLower(naming.Pascal(ed.Name))
			if prev, ok := keys[key]; ok {
				serr.add(DuplicateEntity, pos, "", "entity name conflicts with %q", prev)
				break
			}
			keys[key] = ed.Name
			s.byName[ed.Name] = e
			switch prev, ok := tables[e.table]; {
			case !tableRe.MatchString(e.table):
				serr.add(InvalidName, pos, "", "table name %q is not a valid identifier", e.table)
			case e.table == SequenceTable:
				serr.add(InvalidName, pos, "", "table name %q is reserved", e.table)
			case ok:
				serr.add(DuplicateTable, pos, "", "table %q is already used by entity %q", e.table, prev)
			default:
				tables[e.table] = ed.Name
			}
		}
		columns := make(map[string]string)
		for j, ad := range ed.Attributes {
			a := &Attribute{
				name:      ad.Name,
				nullable:  ad.Nullable,
				unique:    ad.Unique,
				immutable: ad.Immutable,
				sensitive: ad.Sensitive,
				comment:   ad.Comment,
				entity:    e,
			}
			apos := ad.Name
			switch {
			case strings.TrimSpace(ad.Name) == "":
				apos = fmt.Sprintf("#%d", j+1)
				serr.add(EmptyAttributeName, pos, apos, "attribute %d has no name", j+1)
			case checkAttrName(ad.Name) != nil:
				serr.add(InvalidName, pos, apos, "%v", checkAttrName(ad.Name))
			default:
				column := naming.Snake(ad.Name)
				if prev, ok := columns[column]; ok {
					serr.add(DuplicateAttribute, pos, apos, "attribute conflicts with %q", prev)
				} else {
					columns[column] = ad.Name
					e.byName[ad.Name] = a
				}
			}
			typ, ok := field.ParseType(ad.Type)
			switch {
			case !ok:
				serr.add(UnknownType, pos, apos, "unknown attribute type %q", ad.Type)
			case typ == field.TypeRef && ad.Ref == "":
				serr.add(UnknownReference, pos, apos, "reference attribute requires a referenced entity")
			case typ != field.TypeRef && ad.Ref != "":
				serr.add(UnknownReference, pos, apos, "ref %q is only allowed on reference attributes", ad.Ref)
			case typ == field.TypeRef:
				refs[a] = ad.Ref
			}
			a.typ = typ
			e.attrs = append(e.attrs, a)
		}
		s.entities = append(s.entities, e)
	}
	// References may point forward, so they are resolved once all
	// entities are known.
	for _, e := range s.entities {
		if e.validator != "" {
			if err := s.checkValidator(e); err != nil {
				serr.add(InvalidName, e.name, "", "%v", err)
			}
		}
		for _, a := range e.attrs {
			name, ok := refs[a]
			if !ok {
				continue
			}
			target, ok := s.byName[name]
			if !ok {
				serr.add(UnknownReference, e.name, a.name, "referenced entity %q does not exist", name)
				continue
			}
			a.ref = target
		}
	}
	if len(serr.Issues) > 0 {
		return nil, serr
	}
	return s, nil
}

func checkEntityName(name string) error {
	if !token.IsIdentifier(name) {
		return fmt.Errorf("entity name %q is not a valid identifier", name)
	}
	if strings.HasPrefix(name, "_") {
		return fmt.Errorf("entity name %q cannot start with an underscore", name)
	}
	pascal := naming.Pascal(name)
	if _, ok := globalIdent[pascal]; ok {
		return fmt.Errorf("entity name %q conflicts with a generated identifier", name)
	}
	for _, suffix := range entitySuffixes {
		if strings.HasSuffix(pascal, suffix) {
			return fmt.Errorf("entity name %q conflicts with the generated %s of entity %q", name, strings.ToLower(suffix), strings.TrimSuffix(pascal, suffix))
		}
	}
	// Entity packages are named after the lower-cased type name.
	pkg := strings.ToLower(pascal)
	if naming.Keyword(pkg) {
		return fmt.Errorf("entity package name %q conflicts with a Go keyword or predeclared identifier", pkg)
	}
	if _, ok := reservedPkg[pkg]; ok {
		return fmt.Errorf("entity package name %q conflicts with an identifier of the generated code", pkg)
	}
	return nil
}

// checkValidator checks that the validator of e can be called from the
// generated client of e without being shadowed or shadowing generated code.
func (s *Schema) checkValidator(e *Entity) error {
	name := e.validator
	switch {
	case !token.IsIdentifier(name) || strings.HasPrefix(name, "_"):
		return fmt.Errorf("validator %q is not a valid function name", name)
	case naming.Keyword(name):
		return fmt.Errorf("validator %q conflicts with a Go keyword or predeclared identifier", name)
	}
	if _, ok := globalIdent[name]; ok {
		return fmt.Errorf("validator %q conflicts with a generated identifier", name)
	}
	if _, ok := reservedPkg[name]; ok {
		return fmt.Errorf("validator %q conflicts with an identifier of the generated code", name)
	}
	for _, other := range s.entities {
		pascal := naming.Pascal(other.name)
		for _, n := range []string{pascal, strings.ToLower(pascal), pascal + "Client", pascal + "Create", "New" + pascal + "Client"} {
			if name == n {
				return fmt.Errorf("validator %q conflicts with the generated code of entity %q", name, other.name)
			}
		}
	}
	if name == naming.Receiver(naming.Pascal(e.name)) {
		return fmt.Errorf("validator %q conflicts with the receiver of entity %q", name, e.name)
	}
	for _, a := range e.attrs {
		if name == naming.Camel(a.name) {
			return fmt.Errorf("validator %q conflicts with attribute %q", name, a.name)
		}
	}
	return nil
}

func checkAttrName(name string) error {
	if !token.IsIdentifier(name) {
		return fmt.Errorf("attribute name %q is not a valid identifier", name)
	}
	if strings.HasPrefix(name, "_") {
		return fmt.Errorf("attribute name %q cannot start with an underscore", name)
	}
	if _, ok := reservedAttr[naming.Pascal(name)]; ok {
		return fmt.Errorf("attribute name %q is reserved", name)
	}
	return nil
}
