package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonschema"

	"github.com/nachoal/jais-prompt-go/llm"
)

// Benchmark catalogs use Python type names; these are their JSON Schema
// spellings. "any" has no equivalent and drops the type constraint.
var typeAliases = map[string]string{
	"dict":  "object",
	"float": "number",
	"tuple": "array",
	"list":  "array",
	"str":   "string",
	"int":   "integer",
	"bool":  "boolean",
	"any":   "",
}

// Validate checks that names are unique and every parameters schema compiles
func Validate(functions []llm.Function) error {
	seen := make(map[string]bool, len(functions))
	for _, fn := range functions {
		if fn.Name == "" {
			return fmt.Errorf("%w: function is missing name", llm.ErrInvalidInput)
		}
		if seen[fn.Name] {
			return fmt.Errorf("%w: function '%s' is defined twice", llm.ErrInvalidInput, fn.Name)
		}
		seen[fn.Name] = true

		if _, err := compile(fn); err != nil {
			return err
		}
	}
	return nil
}

// CheckCall validates call arguments against the named function's schema
func CheckCall(functions []llm.Function, name string, arguments json.RawMessage) error {
	fn, ok := Find(functions, name)
	if !ok {
		return fmt.Errorf("function '%s' not found in catalog", name)
	}

	schema, err := compile(fn)
	if err != nil {
		return err
	}
	if schema == nil {
		return nil
	}

	var args interface{}
	if err := json.Unmarshal(arguments, &args); err != nil {
		return fmt.Errorf("arguments for '%s' are not valid JSON: %w", name, err)
	}

	result := schema.Validate(args)
	if !result.IsValid() {
		return fmt.Errorf("arguments for '%s' do not match schema: %s", name, result.Error())
	}
	return nil
}

// compile returns nil when the function declares no parameters
func compile(fn llm.Function) (*jsonschema.Schema, error) {
	if len(fn.Parameters) == 0 {
		return nil, nil
	}

	var doc interface{}
	if err := json.Unmarshal(fn.Parameters, &doc); err != nil {
		return nil, fmt.Errorf("%w: parameters of '%s' are not valid JSON: %v", llm.ErrInvalidInput, fn.Name, err)
	}

	normalized, err := json.Marshal(normalizeTypes(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema for '%s': %w", fn.Name, err)
	}

	schema, err := jsonschema.NewCompiler().Compile(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid schema for '%s': %v", llm.ErrInvalidInput, fn.Name, err)
	}
	return schema, nil
}

func normalizeTypes(v interface{}) interface{} {
	switch node := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(node))
		for key, value := range node {
			out[key] = normalizeTypes(value)
		}
		if t, ok := node["type"].(string); ok {
			if alias, known := typeAliases[t]; known {
				if alias == "" {
					delete(out, "type")
				} else {
					out["type"] = alias
				}
			}
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(node))
		for i, value := range node {
			out[i] = normalizeTypes(value)
		}
		return out
	default:
		return v
	}
}
