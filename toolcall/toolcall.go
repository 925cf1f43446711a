// Package toolcall extracts the function calls a model emits inside
// <tool_call> tags of its final answer.
package toolcall

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/nachoal/jais-prompt-go/template"
)

var emptyArguments = json.RawMessage(`{}`)

// codeFenceRe matches markdown code fences some models put around the payload
var codeFenceRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// Call is one function call requested by the model
type Call struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Extract returns every well-formed call in content, in order. A final block
// missing its closing tag is read to the end of content. Blocks whose payload
// is not a JSON object with a name are skipped.
func Extract(content string) []Call {
	var calls []Call

	rest := content
	for {
		start := strings.Index(rest, template.ToolCallOpen)
		if start < 0 {
			break
		}
		rest = rest[start+len(template.ToolCallOpen):]

		payload := rest
		if end := strings.Index(rest, template.ToolCallClose); end >= 0 {
			payload = rest[:end]
			rest = rest[end+len(template.ToolCallClose):]
		} else {
			rest = ""
		}

		call, ok := decode(payload)
		if !ok {
			continue
		}
		call.ID = fmt.Sprintf("call_%d", len(calls))
		calls = append(calls, call)
	}

	return calls
}

func decode(payload string) (Call, bool) {
	payload = strings.TrimSpace(payload)
	if m := codeFenceRe.FindStringSubmatch(payload); len(m) > 1 {
		payload = m[1]
	}
	if !gjson.Valid(payload) {
		return Call{}, false
	}

	parsed := gjson.Parse(payload)
	if !parsed.IsObject() {
		return Call{}, false
	}

	name := parsed.Get("name")
	if name.Type != gjson.String || name.Str == "" {
		return Call{}, false
	}

	return Call{
		Name:      name.Str,
		Arguments: NormalizeArguments(parsed.Get("arguments")),
	}, true
}

// NormalizeArguments converts raw call arguments into a compact JSON object.
// It accepts either an object or a JSON-encoded string holding an object;
// anything else becomes {}.
func NormalizeArguments(args gjson.Result) json.RawMessage {
	// Some models return arguments as a JSON string. Unquote once first.
	if args.Type == gjson.String {
		inner := strings.TrimSpace(args.Str)
		if !gjson.Valid(inner) {
			return emptyArguments
		}
		args = gjson.Parse(inner)
	}

	if !args.IsObject() {
		return emptyArguments
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(args.Raw)); err != nil {
		return emptyArguments
	}
	return json.RawMessage(buf.Bytes())
}

// ToAST converts calls into the [{name: arguments}] shape benchmark
// checkers compare against.
func ToAST(calls []Call) []map[string]json.RawMessage {
	out := make([]map[string]json.RawMessage, len(calls))
	for i, call := range calls {
		out[i] = map[string]json.RawMessage{call.Name: call.Arguments}
	}
	return out
}
