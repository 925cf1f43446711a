// Package catalog loads and validates the function catalog offered to the
// model in the system prompt.
package catalog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nachoal/jais-prompt-go/llm"
)

// Load reads a catalog file. The format is chosen by extension: .yaml/.yml,
// .jsonl (one function per line), anything else is JSON holding either one
// function object or an array of them.
func Load(path string) ([]llm.Function, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var functions []llm.Function
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		functions, err = DecodeYAML(data)
	case ".jsonl":
		functions, err = DecodeJSONL(data)
	default:
		functions, err = DecodeJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	return functions, nil
}

// DecodeJSON decodes a single function object or an array of them
func DecodeJSON(data []byte) ([]llm.Function, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '{' {
		var fn llm.Function
		if err := json.Unmarshal(trimmed, &fn); err != nil {
			return nil, err
		}
		return []llm.Function{fn}, nil
	}

	var functions []llm.Function
	if err := json.Unmarshal(trimmed, &functions); err != nil {
		return nil, err
	}
	return functions, nil
}

// DecodeJSONL decodes one function object per non-blank line
func DecodeJSONL(data []byte) ([]llm.Function, error) {
	var functions []llm.Function

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}

		var fn llm.Function
		if err := json.Unmarshal(text, &fn); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		functions = append(functions, fn)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return functions, nil
}

// DecodeYAML decodes a YAML document shaped like the JSON form
func DecodeYAML(data []byte) ([]llm.Function, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}

	asJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("catalog is not representable as JSON: %w", err)
	}
	return DecodeJSON(asJSON)
}

// Names returns the function names in catalog order
func Names(functions []llm.Function) []string {
	names := make([]string, len(functions))
	for i, fn := range functions {
		names[i] = fn.Name
	}
	return names
}

// Find returns the function with the given name
func Find(functions []llm.Function, name string) (llm.Function, bool) {
	for _, fn := range functions {
		if fn.Name == name {
			return fn, true
		}
	}
	return llm.Function{}, false
}
