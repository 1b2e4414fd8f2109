package catalog

import (
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

type document struct {
	Fields  []FieldSpec `yaml:"fields"`
	Aliases []AliasRule `yaml:"aliases"`
}

var schema = func() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
	if err != nil {
		panic(fmt.Sprintf("catalog: compiling document schema: %v", err))
	}
	return s
}()

// Default returns the built-in catalogue.
func Default(logger *slog.Logger) (*Catalog, error) {
	return Parse(defaultCatalog, logger)
}

// LoadFile reads a catalogue from a YAML or JSON file.
func LoadFile(path string, logger *slog.Logger) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalogue: %w", err)
	}
	return Parse(data, logger)
}

// Load reads a catalogue document from r.
func Load(r io.Reader, logger *slog.Logger) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading catalogue: %w", err)
	}
	return Parse(data, logger)
}

// Parse validates a YAML or JSON catalogue document and builds it. JSON is
// accepted as the YAML flow subset.
func Parse(data []byte, logger *slog.Logger) (*Catalog, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := validate(raw); err != nil {
		return nil, err
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	b := NewBuilder(logger)
	for _, f := range doc.Fields {
		b.Add(f)
	}
	for _, a := range doc.Aliases {
		b.Alias(a.Field, a.Keys...)
	}
	return b.Build()
}

func validate(raw any) error {
	result, err := schema.Validate(gojsonschema.NewGoLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if !result.Valid() {
		var problems []string
		for _, e := range result.Errors() {
			problems = append(problems, fmt.Sprintf("- %s", e))
		}
		return fmt.Errorf("%w: schema validation failed:\n%s", ErrInvalidCatalog, strings.Join(problems, "\n"))
	}
	return nil
}

const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Field catalogue",
  "type": "object",
  "required": ["fields"],
  "additionalProperties": false,
  "properties": {
    "fields": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name"],
        "additionalProperties": false,
        "anyOf": [
          {"required": ["labels", "shape"]},
          {"required": ["pattern"]}
        ],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "labels": {"type": "array", "items": {"type": "string", "minLength": 1}},
          "abbreviations": {"type": "array", "items": {"type": "string", "minLength": 1}},
          "shape": {"type": "string", "enum": ["integer", "decimal", "word", "boolean", "pair"]},
          "vocabulary": {"type": "array", "items": {"type": "string", "minLength": 1}},
          "require_colon": {"type": "boolean"},
          "pattern": {"type": "string", "minLength": 1},
          "aliases": {"type": "array", "items": {"type": "string", "minLength": 1}}
        }
      }
    },
    "aliases": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["field", "keys"],
        "additionalProperties": false,
        "properties": {
          "field": {"type": "string", "minLength": 1},
          "keys": {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}}
        }
      }
    }
  }
}`
