package movedata

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "https://movetable.local/schemas/dataset.schema.json"

const datasetSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["moves"],
  "properties": {
    "formatVersion": {"type": "string"},
    "moves": {"type": "array", "items": {"$ref": "#/$defs/move"}},
    "moveDurationsCentiseconds": {"type": "array", "items": {"type": "integer", "minimum": 0}}
  },
  "$defs": {
    "move": {
      "type": "object",
      "required": ["turn", "ply", "color", "notation"],
      "properties": {
        "turn": {"type": "integer", "minimum": 1},
        "ply": {"type": "integer", "minimum": 1},
        "color": {"enum": ["white", "black"]},
        "notation": {"type": "string"},
        "advantageLabel": {"type": "string"},
        "movetime": {"type": ["string", "number"]}
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(schemaURL, strings.NewReader(datasetSchema)); err != nil {
			schemaErr = fmt.Errorf("dataset schema load failed: %w", err)
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Decode parses and validates a dataset body. The body must be an
// ExperimentalDataset object; a bare array of moves is rejected.
func Decode(raw []byte) (*ExperimentalDataset, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &DecodeError{Kind: ErrMalformedJSON, Err: err}
	}
	if _, ok := doc.([]any); ok {
		return nil, &DecodeError{Kind: ErrBareArray, Err: staticErr(`expected {"formatVersion", "moves", "moveDurationsCentiseconds"}`)}
	}

	s, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	if err := s.Validate(doc); err != nil {
		return nil, &DecodeError{Kind: ErrSchema, Err: err}
	}

	var ds ExperimentalDataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return nil, &DecodeError{Kind: ErrSchema, Err: err}
	}
	if err := ds.Validate(); err != nil {
		return nil, &DecodeError{Kind: ErrInvariant, Err: err}
	}
	return &ds, nil
}
