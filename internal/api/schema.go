package api

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Response schemas per endpoint. A payload that fails its schema becomes
// an ErrDataInconsistency at the decode boundary instead of a silent
// zero value deeper in the app.

var questionListSchema = map[string]any{
	"type":     "object",
	"required": []any{"questions"},
	"properties": map[string]any{
		"questions": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"id", "prompt", "kind"},
				"properties": map[string]any{
					"id":      map[string]any{"type": "string", "minLength": 1},
					"subject": map[string]any{"type": "string"},
					"chapter": map[string]any{"type": "string"},
					"prompt":  map[string]any{"type": "string", "minLength": 1},
					"kind":    map[string]any{"enum": []any{"multiple-choice", "numeric"}},
					"options": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
				},
			},
		},
	},
}

var feedbackSchema = map[string]any{
	"type":     "object",
	"required": []any{"correct", "correct_answer"},
	"properties": map[string]any{
		"correct":        map[string]any{"type": "boolean"},
		"correct_answer": map[string]any{"type": "string"},
		"explanation":    map[string]any{"type": "string"},
	},
}

var resultSummarySchema = map[string]any{
	"type":     "object",
	"required": []any{"score", "total", "status"},
	"properties": map[string]any{
		"score":              map[string]any{"type": "integer", "minimum": 0},
		"total":              map[string]any{"type": "integer", "minimum": 0},
		"accuracy":           map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		"total_time_seconds": map[string]any{"type": "integer", "minimum": 0},
		"streak":             map[string]any{"type": "integer", "minimum": 0},
		"status":             map[string]any{"enum": []any{"final", "processing"}},
	},
}

var unlockStateSchema = map[string]any{
	"type":     "object",
	"required": []any{"start_date", "target_date", "curriculum_order"},
	"properties": map[string]any{
		"unlocked_chapters": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"bonus_unlocked":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"start_date":        map[string]any{"type": "string"},
		"target_date":       map[string]any{"type": "string"},
		"curriculum_order":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
}

var unlockOutcomeSchema = map[string]any{
	"type":     "object",
	"required": []any{"unlocked"},
	"properties": map[string]any{
		"unlocked": map[string]any{"type": "boolean"},
		"correct":  map[string]any{"type": "integer", "minimum": 0},
	},
}

// schemaCache caches compiled schemas by name.
var schemaCache sync.Map // map[string]*jsonschema.Schema

// decodeValidated validates raw against the named schema, then unmarshals
// into out. Any failure is an ErrDataInconsistency carrying the payload.
func decodeValidated(name string, def map[string]any, raw json.RawMessage, out any) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return &ErrDataInconsistency{Payload: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	compiled, err := compiledSchema(name, def)
	if err != nil {
		return &ErrDataInconsistency{Payload: raw, Err: fmt.Errorf("compile schema %q: %w", name, err)}
	}

	if err := compiled.Validate(parsed); err != nil {
		return &ErrDataInconsistency{Payload: raw, Err: fmt.Errorf("schema %q: %w", name, err)}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return &ErrDataInconsistency{Payload: raw, Err: fmt.Errorf("decode %q: %w", name, err)}
	}
	return nil
}

// compiledSchema returns a cached compiled schema or compiles and caches it.
func compiledSchema(name string, def map[string]any) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	// The jsonschema library expects a parsed JSON value (any), not raw
	// bytes. Round-trip through Marshal for a clean representation.
	defBytes, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("marshal schema definition: %w", err)
	}
	var defParsed any
	if err := json.Unmarshal(defBytes, &defParsed); err != nil {
		return nil, fmt.Errorf("parse schema definition: %w", err)
	}

	c := jsonschema.NewCompiler()
	schemaURL := fmt.Sprintf("schema://%s.json", name)
	if err := c.AddResource(schemaURL, defParsed); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}

	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	schemaCache.Store(name, compiled)
	return compiled, nil
}
