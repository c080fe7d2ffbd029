package transport

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// schemaRegistry lazily compiles and caches the JSON Schema for each
// known transport action.
//
// Grounded on haasonsaas-nexus's internal/gateway/ws_schema.go
// sync.Once-guarded compiled-schema registry.
type schemaRegistry struct {
	once    sync.Once
	initErr error
	methods map[string]*jsonschema.Schema
}

var registry schemaRegistry

func initSchemas() error {
	registry.once.Do(func() {
		sources := map[string]string{
			"read":   readActionSchema,
			"ping":   pingActionSchema,
			"status": statusActionSchema,
		}

		registry.methods = make(map[string]*jsonschema.Schema, len(sources))
		for name, src := range sources {
			compiled, err := jsonschema.CompileString(name, src)
			if err != nil {
				registry.initErr = err
				return
			}
			registry.methods[name] = compiled
		}
	})
	return registry.initErr
}

// ValidateRequest validates raw against the schema for action. Unknown
// actions pass schema validation here and are rejected later by the
// handler with "Unknown action: X", per spec.md §4.7 — schema
// validation only governs the shape of actions this broker knows
// about.
func ValidateRequest(action string, raw map[string]json.RawMessage) error {
	if err := initSchemas(); err != nil {
		return fmt.Errorf("transport: schema init: %w", err)
	}

	schema, ok := registry.methods[action]
	if !ok {
		return nil
	}

	payload := map[string]any{}
	for k, v := range raw {
		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			return fmt.Errorf("Invalid JSON")
		}
		payload[k] = decoded
	}

	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("Invalid request: %w", err)
	}
	return nil
}

const readActionSchema = `{
  "type": "object",
  "required": ["action", "reference"],
  "properties": {
    "action": { "const": "read" },
    "reference": { "type": "string", "minLength": 1 },
    "reason": { "type": "string" }
  },
  "additionalProperties": true
}`

const pingActionSchema = `{
  "type": "object",
  "required": ["action"],
  "properties": {
    "action": { "const": "ping" }
  },
  "additionalProperties": true
}`

const statusActionSchema = `{
  "type": "object",
  "required": ["action"],
  "properties": {
    "action": { "const": "status" }
  },
  "additionalProperties": true
}`
