package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nachoal/jais-prompt-go/catalog"
	"github.com/nachoal/jais-prompt-go/conversation"
	"github.com/nachoal/jais-prompt-go/llm"
	"github.com/nachoal/jais-prompt-go/template"
	"github.com/nachoal/jais-prompt-go/toolcall"
)

var (
	historyPath      string
	appendTarget     string
	catalogPath      string
	renderPretty     bool
	inputPath        string
	promptTokens     int
	completionTokens int
	parsePretty      bool
	withToolCalls    bool
	recordPath       string
	writeBack        bool

	renderCmd = &cobra.Command{
		Use:   "render",
		Short: "Render a message history into a prompt",
		Args:  cobra.NoArgs,
		RunE:  runRender,
	}

	parseCmd = &cobra.Command{
		Use:   "parse",
		Short: "Parse a raw completion into response, reasoning and token counts",
		Args:  cobra.NoArgs,
		RunE:  runParse,
	}

	appendCmd = &cobra.Command{
		Use:   "append",
		Short: "Append turns to a message history file",
	}

	appendAssistantCmd = &cobra.Command{
		Use:   "assistant",
		Short: "Append a parsed model output as the assistant turn",
		Args:  cobra.NoArgs,
		RunE:  runAppendAssistant,
	}

	appendResultsCmd = &cobra.Command{
		Use:   "results [result...]",
		Short: "Append tool execution results, one tool turn each",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAppendResults,
	}
)

func init() {
	renderCmd.Flags().StringVar(&historyPath, "history", "-", "Message history JSON file (- for stdin)")
	renderCmd.Flags().StringVar(&catalogPath, "catalog", "", "Function catalog file (.json, .jsonl, .yaml)")
	renderCmd.Flags().BoolVar(&renderPretty, "pretty", false, "Highlight template markers")

	parseCmd.Flags().StringVar(&inputPath, "input", "-", "Raw completion text file (- for stdin)")
	parseCmd.Flags().IntVar(&promptTokens, "prompt-tokens", 0, "Prompt token count reported by the server")
	parseCmd.Flags().IntVar(&completionTokens, "completion-tokens", 0, "Completion token count reported by the server")
	parseCmd.Flags().BoolVar(&withToolCalls, "tool-calls", false, "Also extract <tool_call> payloads")
	parseCmd.Flags().BoolVar(&parsePretty, "pretty", false, "Print labeled sections instead of JSON")

	for _, c := range []*cobra.Command{appendAssistantCmd, appendResultsCmd} {
		c.Flags().StringVar(&appendTarget, "history", "", "Message history JSON file")
		c.Flags().BoolVarP(&writeBack, "write", "w", false, "Write the result back to the history file")
		c.MarkFlagRequired("history")
	}
	appendAssistantCmd.Flags().StringVar(&recordPath, "record", "-", "Parsed model output JSON (- for stdin)")

	appendCmd.AddCommand(appendAssistantCmd)
	appendCmd.AddCommand(appendResultsCmd)
}

func loadHistory(cmd *cobra.Command, path string) (*conversation.History, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}

	h := conversation.NewHistory()
	if err := json.Unmarshal(data, h); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}
	return h, nil
}

func loadCatalog(path string) ([]llm.Function, error) {
	if path == "" {
		return nil, nil
	}

	functions, err := catalog.Load(path)
	if err != nil {
		return nil, err
	}
	if err := catalog.Validate(functions); err != nil {
		return nil, err
	}

	logger.Debug("loaded catalog", "path", path, "functions", catalog.Names(functions))
	return functions, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	dialect, err := currentDialect()
	if err != nil {
		return err
	}

	h, err := loadHistory(cmd, historyPath)
	if err != nil {
		return err
	}

	functions, err := loadCatalog(catalogPath)
	if err != nil {
		return err
	}

	prompt, err := dialect.Render(h.Messages(), functions)
	if err != nil {
		return err
	}

	logger.Debug("rendered prompt", "dialect", dialect.Name, "messages", h.Len(), "bytes", len(prompt))

	if renderPretty {
		prompt = theme(cmd).Prompt(prompt)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), prompt)
	return err
}

type parseResult struct {
	llm.ModelOutput
	ToolCalls []toolcall.Call              `json:"tool_calls,omitempty"`
	AST       []map[string]json.RawMessage `json:"ast,omitempty"`
}

func runParse(cmd *cobra.Command, args []string) error {
	raw, err := readInput(cmd, inputPath)
	if err != nil {
		return err
	}

	out := template.Parse(string(raw), llm.Usage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
	})
	logger.Debug("parsed completion", "reasoning", out.ReasoningContent != "", "bytes", len(raw))

	if parsePretty {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), theme(cmd).Output(out))
		return err
	}

	result := parseResult{ModelOutput: out}
	if withToolCalls {
		result.ToolCalls = toolcall.Extract(out.ModelResponses)
		result.AST = toolcall.ToAST(result.ToolCalls)
	}
	return writeJSON(cmd.OutOrStdout(), result)
}

func runAppendAssistant(cmd *cobra.Command, args []string) error {
	if appendTarget == "-" && recordPath == "-" {
		return fmt.Errorf("--history and --record cannot both read stdin")
	}
	if err := checkWriteTarget(); err != nil {
		return err
	}

	h, err := loadHistory(cmd, appendTarget)
	if err != nil {
		return err
	}

	data, err := readInput(cmd, recordPath)
	if err != nil {
		return err
	}

	var out llm.ModelOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("failed to parse model output record: %w", err)
	}

	return emitHistory(cmd, h.AppendAssistantTurn(out))
}

func runAppendResults(cmd *cobra.Command, args []string) error {
	if err := checkWriteTarget(); err != nil {
		return err
	}

	h, err := loadHistory(cmd, appendTarget)
	if err != nil {
		return err
	}

	return emitHistory(cmd, h.AppendExecutionResults(args))
}

func checkWriteTarget() error {
	if writeBack && appendTarget == "-" {
		return fmt.Errorf("--write needs a history file, not stdin")
	}
	return nil
}

func emitHistory(cmd *cobra.Command, h *conversation.History) error {
	if !writeBack {
		return writeJSON(cmd.OutOrStdout(), h)
	}

	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := os.WriteFile(appendTarget, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}

	logger.Info("history updated", "path", appendTarget, "messages", h.Len())
	return nil
}
