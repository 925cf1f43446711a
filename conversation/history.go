package conversation

import (
	"encoding/json"

	"github.com/nachoal/jais-prompt-go/llm"
	"github.com/nachoal/jais-prompt-go/template"
)

// History is the ordered, append-only record of one conversation in
// canonical roles. It is not safe for concurrent use; one conversation is
// one sequential call chain.
type History struct {
	messages []llm.Message
}

// NewHistory creates a history seeded with the given messages
func NewHistory(messages ...llm.Message) *History {
	h := &History{}
	h.messages = append(h.messages, messages...)
	return h
}

// Append adds driver-authored turns such as system or user messages
func (h *History) Append(messages ...llm.Message) *History {
	h.messages = append(h.messages, messages...)
	return h
}

// AppendAssistantTurn records a parsed model output as an assistant turn.
// The role stays canonical; translation happens only at render time.
func (h *History) AppendAssistantTurn(out llm.ModelOutput) *History {
	h.messages = append(h.messages, llm.Message{
		Role:             llm.RoleAssistant,
		Content:          out.ModelResponses,
		ReasoningContent: out.ReasoningContent,
	})
	return h
}

// AppendExecutionResults records one tool message per result, in order
func (h *History) AppendExecutionResults(results []string) *History {
	for _, result := range results {
		h.messages = append(h.messages, llm.Message{
			Role:    llm.RoleTool,
			Content: template.WrapExecutionResult(result),
		})
	}
	return h
}

// Messages returns a copy of the recorded messages
func (h *History) Messages() []llm.Message {
	if h == nil {
		return nil
	}
	out := make([]llm.Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the number of recorded messages
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.messages)
}

// MarshalJSON encodes the history as a plain message array
func (h *History) MarshalJSON() ([]byte, error) {
	if h.messages == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(h.messages)
}

// UnmarshalJSON decodes a plain message array
func (h *History) UnmarshalJSON(data []byte) error {
	var messages []llm.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return err
	}
	h.messages = messages
	return nil
}
