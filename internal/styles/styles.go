// Package styles colors prompts and parsed records for terminal output.
package styles

import (
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/nachoal/jais-prompt-go/llm"
	"github.com/nachoal/jais-prompt-go/template"
)

// Theme represents a color theme
type Theme struct {
	Name    string
	Marker  lipgloss.AdaptiveColor
	Role    lipgloss.AdaptiveColor
	Tag     lipgloss.AdaptiveColor
	Text    lipgloss.AdaptiveColor
	TextDim lipgloss.AdaptiveColor
	Label   lipgloss.AdaptiveColor
}

// DefaultTheme is used unless another one is requested
var DefaultTheme = Theme{
	Name:    "default",
	Marker:  lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"},
	Role:    lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7B68EE"},
	Tag:     lipgloss.AdaptiveColor{Light: "#FF9800", Dark: "#FFA726"},
	Text:    lipgloss.AdaptiveColor{Light: "#1E1E1E", Dark: "#E0E0E0"},
	TextDim: lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"},
	Label:   lipgloss.AdaptiveColor{Light: "#2196F3", Dark: "#42A5F5"},
}

// Styles holds the rendered lipgloss styles for one theme
type Styles struct {
	Marker    lipgloss.Style
	Role      lipgloss.Style
	Tag       lipgloss.Style
	Reasoning lipgloss.Style
	Label     lipgloss.Style
	Section   lipgloss.Style
}

// New builds styles from a theme for output written to out. With noColor
// set every style renders plain text.
func New(theme Theme, out io.Writer, noColor bool) Styles {
	r := lipgloss.NewRenderer(out)
	if noColor {
		r.SetColorProfile(termenv.Ascii)
	}

	return Styles{
		Marker:    r.NewStyle().Foreground(theme.Marker),
		Role:      r.NewStyle().Foreground(theme.Role).Bold(true),
		Tag:       r.NewStyle().Foreground(theme.Tag),
		Reasoning: r.NewStyle().Foreground(theme.TextDim).Italic(true),
		Label:     r.NewStyle().Foreground(theme.Label).Bold(true),
		Section: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Marker).
			Padding(0, 1),
	}
}

var markers = []string{
	template.BeginOfText,
	template.EndOfTurn,
}

var tags = []string{
	template.ThinkOpen, template.ThinkClose,
	template.ToolsOpen, template.ToolsClose,
	template.ToolCallOpen, template.ToolCallClose,
	template.ToolResponseOpen, template.ToolResponseClose,
}

// Prompt highlights template markers, header roles and wrapper tags
func (s Styles) Prompt(prompt string) string {
	var b strings.Builder

	rest := prompt
	for {
		start := strings.Index(rest, template.StartHeader)
		if start < 0 {
			b.WriteString(s.body(rest))
			break
		}
		b.WriteString(s.body(rest[:start]))
		rest = rest[start+len(template.StartHeader):]

		end := strings.Index(rest, template.EndHeader)
		if end < 0 {
			b.WriteString(s.Marker.Render(template.StartHeader))
			b.WriteString(s.body(rest))
			break
		}

		b.WriteString(s.Marker.Render(template.StartHeader))
		b.WriteString(s.Role.Render(rest[:end]))
		b.WriteString(s.Marker.Render(template.EndHeader))
		rest = rest[end+len(template.EndHeader):]
	}

	return b.String()
}

func (s Styles) body(text string) string {
	for _, m := range markers {
		text = strings.ReplaceAll(text, m, s.Marker.Render(m))
	}
	for _, t := range tags {
		text = strings.ReplaceAll(text, t, s.Tag.Render(t))
	}
	return text
}

// Output formats a parsed model output as labeled sections
func (s Styles) Output(out llm.ModelOutput) string {
	var sections []string

	if out.ReasoningContent != "" {
		sections = append(sections, s.Section.Render(
			s.Label.Render("reasoning")+"\n"+s.Reasoning.Render(out.ReasoningContent)))
	}
	sections = append(sections, s.Section.Render(
		s.Label.Render("response")+"\n"+s.body(out.ModelResponses)))

	tokens := s.Marker.Render("tokens ") +
		s.Label.Render("in ") + strconv.Itoa(out.InputToken) +
		s.Label.Render(" out ") + strconv.Itoa(out.OutputToken)
	sections = append(sections, tokens)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
