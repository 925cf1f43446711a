package conversation

import (
	"io"
	"log/slog"

	"github.com/nachoal/jais-prompt-go/llm"
	"github.com/nachoal/jais-prompt-go/template"
)

// Option configures a Session
type Option func(*Session)

// WithDialect selects the chat template dialect
func WithDialect(d template.Dialect) Option {
	return func(s *Session) {
		s.dialect = d
	}
}

// WithFunctions sets the function catalog offered to the model
func WithFunctions(functions []llm.Function) Option {
	return func(s *Session) {
		s.functions = functions
	}
}

// WithHistory resumes from an existing history
func WithHistory(h *History) Option {
	return func(s *Session) {
		s.history = h
	}
}

// WithUsage restores token counts accumulated by an earlier run
func WithUsage(usage llm.Usage) Option {
	return func(s *Session) {
		s.usage = usage
	}
}

// WithLogger sets the logger used for debug output
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// Session drives one multi-turn conversation: render, parse, append.
type Session struct {
	dialect   template.Dialect
	functions []llm.Function
	history   *History
	logger    *slog.Logger
	usage     llm.Usage
}

// NewSession creates a session using the JaisPlus dialect by default
func NewSession(opts ...Option) *Session {
	s := &Session{
		dialect: template.JaisPlus,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.history == nil {
		s.history = NewHistory()
	}

	return s
}

// Start seeds the history with a system prompt and the first user query.
// An empty system prompt is skipped unless the session carries functions,
// since the catalog is only rendered into a leading system turn.
func (s *Session) Start(system, user string) *Session {
	if system != "" || len(s.functions) > 0 {
		s.history.Append(llm.Message{Role: llm.RoleSystem, Content: system})
	}
	s.history.Append(llm.Message{Role: llm.RoleUser, Content: user})
	return s
}

// AddUser appends a follow-up user turn
func (s *Session) AddUser(content string) *Session {
	s.history.Append(llm.Message{Role: llm.RoleUser, Content: content})
	return s
}

// Prompt renders the current history into the next prompt string
func (s *Session) Prompt() (string, error) {
	prompt, err := s.dialect.Render(s.history.messages, s.functions)
	if err != nil {
		return "", err
	}

	s.logger.Debug("rendered prompt",
		"dialect", s.dialect.Name,
		"messages", s.history.Len(),
		"functions", len(s.functions),
		"bytes", len(prompt))
	return prompt, nil
}

// Observe parses a raw completion and records it as the assistant turn
func (s *Session) Observe(raw string, usage llm.Usage) llm.ModelOutput {
	out := template.Parse(raw, usage)

	s.usage.PromptTokens += usage.PromptTokens
	s.usage.CompletionTokens += usage.CompletionTokens
	s.history.AppendAssistantTurn(out)

	s.logger.Debug("observed model output",
		"reasoning", out.ReasoningContent != "",
		"reasoning_tag", template.HasReasoning(raw),
		"input_token", out.InputToken,
		"output_token", out.OutputToken)
	return out
}

// Feed records tool execution results for the next turn
func (s *Session) Feed(results []string) *Session {
	s.history.AppendExecutionResults(results)
	s.logger.Debug("appended execution results", "count", len(results), "messages", s.history.Len())
	return s
}

// History returns the session's history
func (s *Session) History() *History {
	return s.history
}

// Functions returns the function catalog
func (s *Session) Functions() []llm.Function {
	return s.functions
}

// Dialect returns the template dialect in use
func (s *Session) Dialect() template.Dialect {
	return s.dialect
}

// Usage returns the token counts accumulated over all observed outputs
func (s *Session) Usage() llm.Usage {
	return s.usage
}
