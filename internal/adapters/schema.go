package adapters

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Input documents are validated before adaptation so that malformed payloads
// surface as CorruptDocument for that document instead of partial garbage
// flowing into reconciliation.

const rawSchemaJSON = `{
	"type": "object",
	"required": ["document_id", "fragments"],
	"properties": {
		"document_id": {"type": "string", "minLength": 1},
		"pages": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["page", "width", "height"],
				"properties": {
					"page": {"type": "integer", "minimum": 1},
					"width": {"type": "number", "exclusiveMinimum": 0},
					"height": {"type": "number", "exclusiveMinimum": 0}
				}
			}
		},
		"fragments": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["text", "page"],
				"properties": {
					"text": {"type": "string"},
					"confidence": {"type": "number", "minimum": 0, "maximum": 1},
					"bbox": {
						"type": ["array", "null"],
						"items": {"type": "number"},
						"minItems": 4,
						"maxItems": 4
					},
					"page": {"type": "integer", "minimum": 1}
				}
			}
		}
	}
}`

const classifiedSchemaJSON = `{
	"type": "object",
	"required": ["document_id", "blocks"],
	"properties": {
		"document_id": {"type": "string", "minLength": 1},
		"pages": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["page", "width", "height"],
				"properties": {
					"page": {"type": "integer", "minimum": 1},
					"width": {"type": "number", "exclusiveMinimum": 0},
					"height": {"type": "number", "exclusiveMinimum": 0}
				}
			}
		},
		"blocks": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["text", "label", "page"],
				"properties": {
					"text": {"type": "string"},
					"label": {"type": "string", "minLength": 1},
					"confidence": {"type": "number", "minimum": 0, "maximum": 1},
					"bbox": {
						"type": ["array", "null"],
						"items": {"type": "number"},
						"minItems": 4,
						"maxItems": 4
					},
					"page": {"type": "integer", "minimum": 1}
				}
			}
		}
	}
}`

const referenceSchemaJSON = `{
	"type": "object",
	"required": ["spans"],
	"properties": {
		"document_id": {"type": "string"},
		"spans": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["text", "section_type"],
				"properties": {
					"text": {"type": "string", "minLength": 1},
					"section_type": {"type": "string", "enum": ["body_text", "footnote"]}
				}
			}
		}
	}
}`

var (
	rawSchema        = jsonschema.MustCompileString("raw.json", rawSchemaJSON)
	classifiedSchema = jsonschema.MustCompileString("classified.json", classifiedSchemaJSON)
	referenceSchema  = jsonschema.MustCompileString("reference.json", referenceSchemaJSON)
)

// validate unmarshals data and checks it against the given schema.
func validate(schema *jsonschema.Schema, data []byte, out any) error {
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(generic); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	return nil
}
