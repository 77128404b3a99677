// Package load reads entity descriptions from JSON or YAML files, checks
// their shape and builds the validated schema from them.
package load

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/syssam/casgen/schema"
)

// Format is the encoding of a description file.
type Format uint8

// Supported description formats.
const (
	JSON Format = iota + 1
	YAML
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case JSON:
		return "json"
	case YAML:
		return "yaml"
	default:
		return fmt.Sprintf("format(%d)", f)
	}
}

// FormatOf returns the format of a description file from its extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	default:
		return 0, fmt.Errorf("load: unsupported description file %q: expect .json, .yaml or .yml", path)
	}
}

// LoadFile reads, decodes and validates the description file at path.
func LoadFile(path string) (*schema.Schema, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: read description: %w", err)
	}
	s, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a description and builds its schema. Shape problems are
// reported as a *ShapeError, semantic ones as a *schema.Error.
func Parse(data []byte, format Format) (*schema.Schema, error) {
	d, err := Decode(data, format)
	if err != nil {
		return nil, err
	}
	return schema.New(d)
}

// Decode decodes a description and checks its shape without building the
// schema. Unknown keys are rejected.
func Decode(data []byte, format Format) (*schema.Description, error) {
	d := &schema.Description{}
	switch format {
	case JSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(d); err != nil {
			return nil, decodeError(format, err)
		}
		if dec.More() {
			return nil, fmt.Errorf("load: decode json: unexpected data after the description")
		}
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(d); err != nil {
			return nil, decodeError(format, err)
		}
	default:
		return nil, fmt.Errorf("load: unsupported format %s", format)
	}
	if err := checkShape(d); err != nil {
		return nil, err
	}
	return d, nil
}

func decodeError(format Format, err error) error {
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("load: decode %s: empty description", format)
	}
	return fmt.Errorf("load: decode %s: %w", format, err)
}

// MarshalSnapshot returns the canonical JSON of the schema description. The
// output is stable for equal schemas.
func MarshalSnapshot(s *schema.Schema) ([]byte, error) {
	b, err := json.Marshal(s.Description())
	if err != nil {
		return nil, fmt.Errorf("load: marshal snapshot: %w", err)
	}
	return b, nil
}

// ParseSnapshot restores a schema from the output of MarshalSnapshot.
func ParseSnapshot(data []byte) (*schema.Schema, error) {
	return Parse(data, JSON)
}

// JSONSchema returns the JSON Schema document of the description format.
func JSONSchema() ([]byte, error) {
	r := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	s := r.Reflect(&schema.Description{})
	s.Title = "casgen entity description"
	s.Description = "Entities and attributes compiled by casgen into versioned accessors."
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("load: marshal json schema: %w", err)
	}
	return append(b, '\n'), nil
}

// ShapeError reports descriptions whose structure is malformed, for example
// a missing entity list or oversized names.
type ShapeError struct {
	Problems []string
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return "load: malformed description: " + strings.Join(e.Problems, "; ")
}

// Is matches schema.ErrInvalidSchema.
func (e *ShapeError) Is(target error) bool {
	return target == schema.ErrInvalidSchema
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func shapeValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report keys as they appear in the description.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

func checkShape(d *schema.Description) error {
	err := shapeValidator().Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("load: check description: %w", err)
	}
	serr := &ShapeError{}
	for _, fe := range verrs {
		serr.Problems = append(serr.Problems, formatFieldError(fe))
	}
	return serr
}

func formatFieldError(fe validator.FieldError) string {
	// Drop the root struct name from "Description.entities[0].name".
	key := fe.Namespace()
	if i := strings.IndexByte(key, '.'); i >= 0 {
		key = key[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", key)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", key, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", key, fe.Tag())
	}
}
