package schema

// Description is the raw, unvalidated form of a schema as read from a
// description file. It is turned into a Schema by New.
type Description struct {
	Entities []EntityDescription `json:"entities" yaml:"entities" validate:"required,dive" jsonschema:"title=Entities,description=Entities of the schema in declaration order"`
}

// EntityDescription describes a single entity.
type EntityDescription struct {
	Name       string                 `json:"name" yaml:"name" validate:"max=128" jsonschema:"required,description=Entity name; becomes the generated Go type name"`
	Table      string                 `json:"table,omitempty" yaml:"table,omitempty" validate:"omitempty,max=128" jsonschema:"description=Table name override; defaults to the snake_case plural of the name"`
	Comment    string                 `json:"comment,omitempty" yaml:"comment,omitempty" validate:"max=2048" jsonschema:"description=Free-form documentation for the entity"`
	Category   string                 `json:"category,omitempty" yaml:"category,omitempty" validate:"max=128" jsonschema:"description=Grouping used by the documentation generator"`
	Validator  string                 `json:"validator,omitempty" yaml:"validator,omitempty" validate:"omitempty,max=128" jsonschema:"description=Name of a func(context.Context, *Entity) error of the generated package; it checks every instance before it is created or set"`
	Attributes []AttributeDescription `json:"attributes" yaml:"attributes" validate:"dive" jsonschema:"description=Attributes in declaration order"`
}

// AttributeDescription describes a single attribute of an entity.
type AttributeDescription struct {
	Name      string `json:"name" yaml:"name" validate:"max=128" jsonschema:"required,description=Attribute name; becomes the column name in snake_case"`
	Type      string `json:"type" yaml:"type" validate:"max=32" jsonschema:"required,enum=integer,enum=text,enum=boolean,enum=real,enum=reference"`
	Nullable  bool   `json:"nullable,omitempty" yaml:"nullable,omitempty" jsonschema:"description=Whether the attribute may hold no value"`
	Ref       string `json:"ref,omitempty" yaml:"ref,omitempty" validate:"max=128" jsonschema:"description=Referenced entity name; required for reference attributes"`
	Unique    bool   `json:"unique,omitempty" yaml:"unique,omitempty" jsonschema:"description=Adds a unique index and a LoadBy loader"`
	Immutable bool   `json:"immutable,omitempty" yaml:"immutable,omitempty" jsonschema:"description=No setter is generated for the attribute"`
	Sensitive bool   `json:"sensitive,omitempty" yaml:"sensitive,omitempty" jsonschema:"description=Value is redacted from String and JSON output"`
	Comment   string `json:"comment,omitempty" yaml:"comment,omitempty" validate:"max=2048" jsonschema:"description=Free-form documentation for the attribute"`
}
