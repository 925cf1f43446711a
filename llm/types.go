package llm

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when a caller hands over a record that is
// missing a required field.
var ErrInvalidInput = errors.New("invalid input")

// Role represents the canonical role of a message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message represents a chat message in canonical form
type Message struct {
	Role             Role   `json:"role"`
	Content          string `json:"content"`
	ReasoningContent string `json:"reasoning_content,omitempty"`
}

// UnmarshalJSON rejects messages without a role or content key.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role             *Role   `json:"role"`
		Content          *string `json:"content"`
		ReasoningContent string  `json:"reasoning_content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Role == nil {
		return fmt.Errorf("%w: message is missing role", ErrInvalidInput)
	}
	if raw.Content == nil {
		return fmt.Errorf("%w: %s message is missing content", ErrInvalidInput, *raw.Role)
	}

	m.Role = *raw.Role
	m.Content = *raw.Content
	m.ReasoningContent = raw.ReasoningContent
	return nil
}

// Function describes one entry of the function catalog offered to the model
type Function struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// UnmarshalJSON rejects functions without a name.
func (f *Function) UnmarshalJSON(data []byte) error {
	type alias Function
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.Name == "" {
		return fmt.Errorf("%w: function is missing name", ErrInvalidInput)
	}
	*f = Function(a)
	return nil
}

// Usage represents token usage information reported by the model server
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// ModelOutput is the normalized result of parsing one raw completion.
// ReasoningContent is the empty string when the model emitted no reasoning.
type ModelOutput struct {
	ModelResponses   string `json:"model_responses"`
	ReasoningContent string `json:"reasoning_content"`
	InputToken       int    `json:"input_token"`
	OutputToken      int    `json:"output_token"`
}
