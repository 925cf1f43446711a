package template

import "github.com/nachoal/jais-prompt-go/llm"

// Dialect describes how canonical roles are spelled in one model family's
// chat template. New dialects are added by writing a new Translate function.
type Dialect struct {
	Name      string
	Translate func(llm.Role) string
}

// JaisPlus is the Llama-style template used by JaisPlus models, which speak
// "ai" instead of "assistant" and "tool_response" instead of "tool".
var JaisPlus = Dialect{
	Name:      "jais_plus",
	Translate: jaisPlusRole,
}

// Llama3 keeps the canonical roles except tool output, which Llama 3
// expects under the "ipython" header.
var Llama3 = Dialect{
	Name:      "llama3",
	Translate: llama3Role,
}

func jaisPlusRole(role llm.Role) string {
	switch role {
	case llm.RoleAssistant:
		return "ai"
	case llm.RoleTool:
		return "tool_response"
	default:
		return string(role)
	}
}

func llama3Role(role llm.Role) string {
	if role == llm.RoleTool {
		return "ipython"
	}
	return string(role)
}

// TemplateRole returns the role label emitted in the prompt for role.
// Unknown roles pass through untranslated.
func (d Dialect) TemplateRole(role llm.Role) string {
	if d.Translate == nil {
		return string(role)
	}
	return d.Translate(role)
}
