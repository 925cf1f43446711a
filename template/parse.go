package template

import (
	"strings"

	"github.com/nachoal/jais-prompt-go/llm"
)

// Parse splits raw model output into the final answer and the optional
// reasoning trace. It never fails: malformed tag structure degrades to an
// empty reasoning string.
//
// Only the last </think> is authoritative for where the answer begins, and
// the reasoning is whatever follows the last <think> before it.
func Parse(raw string, usage llm.Usage) llm.ModelOutput {
	out := llm.ModelOutput{
		ModelResponses: raw,
		InputToken:     usage.PromptTokens,
		OutputToken:    usage.CompletionTokens,
	}

	end := strings.LastIndex(raw, ThinkClose)
	if end < 0 {
		return out
	}

	head, tail := raw[:end], raw[end+len(ThinkClose):]
	if start := strings.LastIndex(head, ThinkOpen); start >= 0 {
		out.ReasoningContent = strings.TrimSpace(head[start+len(ThinkOpen):])
	}
	out.ModelResponses = strings.TrimSpace(tail)

	return out
}

// HasReasoning reports whether raw carries a closing reasoning tag.
func HasReasoning(raw string) bool {
	return strings.Contains(raw, ThinkClose)
}
