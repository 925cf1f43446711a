package styles

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nachoal/jais-prompt-go/llm"
)

func TestPrompt_KeepsText(t *testing.T) {
	s := New(DefaultTheme, &bytes.Buffer{}, false)
	prompt := "<|begin_of_text|><|start_header_id|>system<|end_header_id|>\n\nsys<tools>\n{}\n</tools><|eot_id|><|start_header_id|>ai<|end_header_id|>\n\n"

	got := s.Prompt(prompt)

	for _, want := range []string{"system", "sys", "<tools>", "</tools>", "<|eot_id|>", "ai", "<|begin_of_text|>"} {
		assert.Contains(t, got, want)
	}
	assert.Equal(t, strings.Count(prompt, "<|start_header_id|>"), strings.Count(got, "<|start_header_id|>"))
}

func TestPrompt_UnterminatedHeader(t *testing.T) {
	got := New(DefaultTheme, &bytes.Buffer{}, false).Prompt("<|start_header_id|>user")
	assert.Contains(t, got, "user")
}

func TestOutput(t *testing.T) {
	s := New(DefaultTheme, &bytes.Buffer{}, false)

	got := s.Output(llm.ModelOutput{ModelResponses: "final", ReasoningContent: "because", InputToken: 10, OutputToken: 4})
	assert.Contains(t, got, "reasoning")
	assert.Contains(t, got, "because")
	assert.Contains(t, got, "final")
	assert.Contains(t, got, "10")

	plain := s.Output(llm.ModelOutput{ModelResponses: "only"})
	assert.NotContains(t, plain, "reasoning")
}

func TestPrompt_NoColor(t *testing.T) {
	s := New(DefaultTheme, &bytes.Buffer{}, true)
	prompt := "<|begin_of_text|><|start_header_id|>user<|end_header_id|>\n\n<think>hi</think><|eot_id|><|start_header_id|>ai<|end_header_id|>\n\n"

	got := s.Prompt(prompt)
	assert.Equal(t, prompt, got)
	assert.NotContains(t, got, "\x1b[")
}

func TestOutput_NoColor(t *testing.T) {
	got := New(DefaultTheme, &bytes.Buffer{}, true).Output(llm.ModelOutput{ModelResponses: "final", ReasoningContent: "because"})
	assert.NotContains(t, got, "\x1b[")
	assert.Contains(t, got, "because")
}
