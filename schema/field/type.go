package field

import (
	"fmt"
	"strings"
)

// A Type represents an attribute type.
type Type uint8

// List of attribute types.
const (
	TypeInvalid Type = iota
	TypeInt
	TypeText
	TypeBool
	TypeFloat
	TypeRef
	endTypes
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeInt:     "integer",
	TypeText:    "text",
	TypeBool:    "boolean",
	TypeFloat:   "real",
	TypeRef:     "reference",
}

var goTypes = [...]string{
	TypeInvalid: "invalid",
	TypeInt:     "int64",
	TypeText:    "string",
	TypeBool:    "bool",
	TypeFloat:   "float64",
	TypeRef:     "uint64",
}

var constNames = [...]string{
	TypeInvalid: "TypeInvalid",
	TypeInt:     "TypeInt",
	TypeText:    "TypeText",
	TypeBool:    "TypeBool",
	TypeFloat:   "TypeFloat",
	TypeRef:     "TypeRef",
}

// String returns the canonical description name of the type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// Valid reports if the given type is known.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// GoType returns the name of the Go type values of t are held in.
// It returns "invalid" for unknown types.
func (t Type) GoType() string {
	if t.Valid() {
		return goTypes[t]
	}
	return goTypes[TypeInvalid]
}

// ConstName returns the identifier of the constant for t in this package.
func (t Type) ConstName() string {
	if t.Valid() {
		return constNames[t]
	}
	return constNames[TypeInvalid]
}

// Numeric reports if the type is stored in an integer or real column.
func (t Type) Numeric() bool {
	return t == TypeInt || t == TypeFloat || t == TypeRef || t == TypeBool
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("field: invalid type %d", t)
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	v, ok := ParseType(string(text))
	if !ok {
		return fmt.Errorf("field: unknown type %q", text)
	}
	*t = v
	return nil
}

// ParseType returns the type with the given canonical name. Names are
// matched case-insensitively and surrounding whitespace is ignored.
func ParseType(name string) (Type, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t := TypeInt; t < endTypes; t++ {
		if typeNames[t] == name {
			return t, true
		}
	}
	return TypeInvalid, false
}

// Types returns all valid types in declaration order.
func Types() []Type {
	types := make([]Type, 0, endTypes-1)
	for t := TypeInt; t < endTypes; t++ {
		types = append(types, t)
	}
	return types
}
