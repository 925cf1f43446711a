package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nachoal/jais-prompt-go/llm"
)

// Literal markers of the Llama-style prompt grammar
const (
	BeginOfText = "<|begin_of_text|>"
	StartHeader = "<|start_header_id|>"
	EndHeader   = "<|end_header_id|>"
	EndOfTurn   = "<|eot_id|>"
)

// Wrapper tags used inside message content
const (
	ThinkOpen         = "<think>"
	ThinkClose        = "</think>"
	ToolsOpen         = "<tools>"
	ToolsClose        = "</tools>"
	ToolCallOpen      = "<tool_call>"
	ToolCallClose     = "</tool_call>"
	ToolResponseOpen  = "<tool_call_response>"
	ToolResponseClose = "</tool_call_response>"
)

// Render serializes messages into a single JaisPlus prompt.
func Render(messages []llm.Message, functions []llm.Function) (string, error) {
	return JaisPlus.Render(messages, functions)
}

// Render serializes messages into a single prompt string and ends it with an
// open assistant header so the model continues from there.
//
// When functions is non-empty and the first message is a system turn, the
// catalog block is composed into the rendered copy of that message. The
// messages themselves are never modified.
func (d Dialect) Render(messages []llm.Message, functions []llm.Function) (string, error) {
	var b strings.Builder
	b.WriteString(BeginOfText)

	for i, msg := range messages {
		content := msg.Content
		if i == 0 && msg.Role == llm.RoleSystem && len(functions) > 0 {
			composed, err := ComposeSystem(content, functions)
			if err != nil {
				return "", err
			}
			content = composed
		}

		d.writeHeader(&b, msg.Role)
		b.WriteString(strings.TrimSpace(content))
		b.WriteString(EndOfTurn)
	}

	// Generation cue, intentionally left open
	d.writeHeader(&b, llm.RoleAssistant)
	return b.String(), nil
}

func (d Dialect) writeHeader(b *strings.Builder, role llm.Role) {
	b.WriteString(StartHeader)
	b.WriteString(d.TemplateRole(role))
	b.WriteString(EndHeader)
	b.WriteString("\n\n")
}

// ComposeSystem appends the function catalog to a system prompt, one
// single-line JSON object per function, wrapped in <tools> tags.
func ComposeSystem(system string, functions []llm.Function) (string, error) {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(system))
	b.WriteString("\n")
	b.WriteString(ToolsOpen)
	b.WriteString("\n")

	for _, fn := range functions {
		line, err := encodeFunction(fn)
		if err != nil {
			return "", err
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString(ToolsClose)
	return b.String(), nil
}

func encodeFunction(fn llm.Function) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(fn); err != nil {
		return "", fmt.Errorf("%w: function %q: %v", llm.ErrInvalidInput, fn.Name, err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// WrapExecutionResult wraps one tool result in the result delimiter tags.
func WrapExecutionResult(result string) string {
	return ToolResponseOpen + result + ToolResponseClose
}
