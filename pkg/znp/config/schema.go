package config

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// document is the JSON Schema for the recognized configuration options,
// compiled lazily and cached for the life of the process.
const document = `{
	"type": "object",
	"required": ["device"],
	"properties": {
		"device": {
			"type": "object",
			"required": ["path"],
			"properties": {
				"path": {"type": "string", "minLength": 1},
				"baudrate": {"type": "integer", "minimum": 1},
				"flow_control": {"type": "string", "enum": ["hardware", "software"]}
			}
		},
		"znp_config": {
			"type": "object",
			"properties": {
				"tx_power": {"type": "integer", "minimum": -22, "maximum": 19},
				"sreq_timeout": {"type": "number", "minimum": 0},
				"auto_reconnect": {"type": "boolean"},
				"auto_reconnect_retry_delay": {"type": "number", "minimum": 0}
			}
		}
	}
}`

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func compile() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var schemaMap any
		if err := json.Unmarshal([]byte(document), &schemaMap); err != nil {
			compileErr = fmt.Errorf("unmarshal znp config schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("znp-config.json", schemaMap); err != nil {
			compileErr = fmt.Errorf("add znp config schema resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile("znp-config.json")
	})
	return compiled, compileErr
}

// Validate checks doc against the recognized-options JSON Schema.
func Validate(doc json.RawMessage) error {
	schema, err := compile()
	if err != nil {
		return fmt.Errorf("compile znp config schema: %w", err)
	}

	var payload any
	if err := json.Unmarshal(doc, &payload); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}
