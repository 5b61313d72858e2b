package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// fileKey is the on-disk representation of one key.
type fileKey struct {
	Label      string   `yaml:"label" json:"label"`
	Code       int      `yaml:"code" json:"code"`
	X          float64  `yaml:"x" json:"x"`
	Y          float64  `yaml:"y" json:"y"`
	Width      float64  `yaml:"width" json:"width"`
	Height     float64  `yaml:"height" json:"height"`
	Role       string   `yaml:"role,omitempty" json:"role,omitempty"`
	LongPress  []string `yaml:"long_press,omitempty" json:"long_press,omitempty"`
	NumberHint string   `yaml:"number_hint,omitempty" json:"number_hint,omitempty"`
}

// fileLayout is the on-disk representation of a layout.
type fileLayout struct {
	Name   string    `yaml:"name" json:"name"`
	Width  float64   `yaml:"width" json:"width"`
	Height float64   `yaml:"height" json:"height"`
	Keys   []fileKey `yaml:"keys" json:"keys"`
}

// layoutSchema validates JSON layout files before decoding. YAML files
// go through struct decoding plus the same semantic checks instead.
const layoutSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "width", "height", "keys"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "width": {"type": "number", "exclusiveMinimum": 0},
    "height": {"type": "number", "exclusiveMinimum": 0},
    "keys": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["label", "code", "x", "y", "width", "height"],
        "properties": {
          "label": {"type": "string"},
          "code": {"type": "integer"},
          "x": {"type": "number", "minimum": 0},
          "y": {"type": "number", "minimum": 0},
          "width": {"type": "number", "exclusiveMinimum": 0},
          "height": {"type": "number", "exclusiveMinimum": 0},
          "role": {"type": "string"},
          "long_press": {"type": "array", "items": {"type": "string"}},
          "number_hint": {"type": "string"}
        }
      }
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString("layout.schema.json", layoutSchema)

// LoadFile loads a layout from a .yaml/.yml or .json file.
func LoadFile(path string) (*Geometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(data)
	case ".json":
		return LoadJSON(data)
	default:
		return nil, fmt.Errorf("layout: unsupported file type %q", filepath.Ext(path))
	}
}

// LoadYAML parses a YAML layout definition.
func LoadYAML(data []byte) (*Geometry, error) {
	var fl fileLayout
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fl); err != nil {
		return nil, fmt.Errorf("decode layout yaml: %w", err)
	}
	return fl.build()
}

// LoadJSON parses a JSON layout definition, validating it against the
// embedded schema first so malformed files fail with field-level errors
// instead of decoding into half-empty keys.
func LoadJSON(data []byte) (*Geometry, error) {
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, fmt.Errorf("decode layout json: %w", err)
	}
	if err := compiledSchema.Validate(instance); err != nil {
		return nil, fmt.Errorf("layout schema: %w", err)
	}

	var fl fileLayout
	if err := json.Unmarshal(data, &fl); err != nil {
		return nil, fmt.Errorf("decode layout json: %w", err)
	}
	return fl.build()
}

// build converts the file form into a Geometry, applying the semantic
// checks shared by both formats.
func (fl *fileLayout) build() (*Geometry, error) {
	if fl.Name == "" {
		return nil, fmt.Errorf("layout: missing name")
	}
	if len(fl.Keys) == 0 {
		return nil, fmt.Errorf("layout %q: no keys", fl.Name)
	}

	keys := make([]DynamicKey, 0, len(fl.Keys))
	for i, fk := range fl.Keys {
		role, err := ParseKeyRole(fk.Role)
		if err != nil {
			return nil, fmt.Errorf("layout %q key %d: %w", fl.Name, i, err)
		}
		if fk.Width <= 0 || fk.Height <= 0 {
			return nil, fmt.Errorf("layout %q key %d (%s): non-positive size", fl.Name, i, fk.Label)
		}
		if fk.X < 0 || fk.Y < 0 || fk.X+fk.Width > fl.Width || fk.Y+fk.Height > fl.Height {
			return nil, fmt.Errorf("layout %q key %d (%s): outside keyboard bounds", fl.Name, i, fk.Label)
		}
		keys = append(keys, DynamicKey{
			X:                fk.X,
			Y:                fk.Y,
			Width:            fk.Width,
			Height:           fk.Height,
			Label:            fk.Label,
			Code:             fk.Code,
			Role:             role,
			LongPressOptions: fk.LongPress,
			NumberHint:       fk.NumberHint,
		})
	}
	return NewGeometry(fl.Name, fl.Width, fl.Height, keys)
}
