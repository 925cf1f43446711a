package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nachoal/jais-prompt-go/catalog"
	"github.com/nachoal/jais-prompt-go/conversation"
	"github.com/nachoal/jais-prompt-go/history"
	"github.com/nachoal/jais-prompt-go/llm"
	"github.com/nachoal/jais-prompt-go/toolcall"
)

var (
	entryID        string
	listEntry      string
	systemPrompt   string
	systemFile     string
	userQuery      string
	checkToolCalls bool

	sessionCatalog   string
	promptPretty     bool
	observeInput     string
	observePrompt    int
	observeCompleted int

	sessionCmd = &cobra.Command{
		Use:   "session",
		Short: "Drive a persisted multi-turn conversation",
	}

	sessionNewCmd = &cobra.Command{
		Use:   "new",
		Short: "Start a transcript from a system prompt and user query",
		Args:  cobra.NoArgs,
		RunE:  runSessionNew,
	}

	sessionPromptCmd = &cobra.Command{
		Use:   "prompt [id]",
		Short: "Render the next prompt for a transcript (default: last saved)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSessionPrompt,
	}

	sessionObserveCmd = &cobra.Command{
		Use:   "observe [id]",
		Short: "Parse a raw completion and append it as the assistant turn",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSessionObserve,
	}

	sessionResultsCmd = &cobra.Command{
		Use:   "results id result...",
		Short: "Append tool execution results to a transcript",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runSessionResults,
	}

	sessionUserCmd = &cobra.Command{
		Use:   "user id message",
		Short: "Append a follow-up user turn to a transcript",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runSessionUser,
	}

	sessionShowCmd = &cobra.Command{
		Use:   "show [id]",
		Short: "Print a transcript as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSessionShow,
	}

	sessionListCmd = &cobra.Command{
		Use:   "list",
		Short: "List saved transcripts",
		Args:  cobra.NoArgs,
		RunE:  runSessionList,
	}
)

func init() {
	sessionNewCmd.Flags().StringVar(&entryID, "entry", "", "Benchmark entry id, e.g. multi_turn_base_0")
	sessionNewCmd.Flags().StringVar(&systemPrompt, "system", "", "System prompt text")
	sessionNewCmd.Flags().StringVar(&systemFile, "system-file", "", "Read the system prompt from a file")
	sessionNewCmd.Flags().StringVar(&userQuery, "user", "", "First user query")
	sessionNewCmd.Flags().StringVar(&sessionCatalog, "catalog", "", "Function catalog file (.json, .jsonl, .yaml)")
	sessionNewCmd.MarkFlagRequired("entry")
	sessionNewCmd.MarkFlagRequired("user")

	sessionPromptCmd.Flags().BoolVar(&promptPretty, "pretty", false, "Highlight template markers")

	sessionObserveCmd.Flags().StringVar(&observeInput, "input", "-", "Raw completion text file (- for stdin)")
	sessionObserveCmd.Flags().IntVar(&observePrompt, "prompt-tokens", 0, "Prompt token count reported by the server")
	sessionObserveCmd.Flags().IntVar(&observeCompleted, "completion-tokens", 0, "Completion token count reported by the server")
	sessionObserveCmd.Flags().BoolVar(&checkToolCalls, "check-calls", false, "Validate extracted tool calls against the catalog")

	sessionListCmd.Flags().StringVar(&listEntry, "entry", "", "Only list transcripts for this entry")

	sessionCmd.AddCommand(sessionNewCmd, sessionPromptCmd, sessionObserveCmd,
		sessionResultsCmd, sessionUserCmd, sessionShowCmd, sessionListCmd)
}

func openStore() (*history.Store, error) {
	return history.NewStore(cfg.SessionsDir, logger)
}

// loadTranscript loads the transcript named by args[0], or the last saved one
func loadTranscript(store *history.Store, args []string) (*history.Transcript, error) {
	if len(args) > 0 {
		return store.Load(args[0])
	}
	return store.Last()
}

func runSessionNew(cmd *cobra.Command, args []string) error {
	dialect, err := currentDialect()
	if err != nil {
		return err
	}

	system := systemPrompt
	if systemFile != "" {
		data, err := readInput(cmd, systemFile)
		if err != nil {
			return err
		}
		system = string(data)
	}

	functions, err := loadCatalog(sessionCatalog)
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	session := conversation.NewSession(
		conversation.WithDialect(dialect),
		conversation.WithFunctions(functions),
		conversation.WithLogger(logger),
	).Start(system, userQuery)

	t, err := store.Start(entryID, session)
	if err != nil {
		return err
	}
	if err := store.Save(t); err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), t.ID)
	return err
}

func runSessionPrompt(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	t, err := loadTranscript(store, args)
	if err != nil {
		return err
	}

	session, err := t.Session(conversation.WithLogger(logger))
	if err != nil {
		return err
	}

	prompt, err := session.Prompt()
	if err != nil {
		return err
	}

	if promptPretty {
		prompt = theme(cmd).Prompt(prompt)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), prompt)
	return err
}

func runSessionObserve(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	t, err := loadTranscript(store, args)
	if err != nil {
		return err
	}

	session, err := t.Session(conversation.WithLogger(logger))
	if err != nil {
		return err
	}

	raw, err := readInput(cmd, observeInput)
	if err != nil {
		return err
	}

	out := session.Observe(string(raw), llm.Usage{
		PromptTokens:     observePrompt,
		CompletionTokens: observeCompleted,
	})

	result := parseResult{ModelOutput: out}
	result.ToolCalls = toolcall.Extract(out.ModelResponses)
	result.AST = toolcall.ToAST(result.ToolCalls)

	if checkToolCalls {
		for _, call := range result.ToolCalls {
			if err := catalog.CheckCall(session.Functions(), call.Name, call.Arguments); err != nil {
				logger.Warn("tool call does not match catalog", "call", call.ID, "error", err)
			}
		}
	}

	t.Capture(session)
	if err := store.Save(t); err != nil {
		return err
	}

	return writeJSON(cmd.OutOrStdout(), result)
}

func runSessionResults(cmd *cobra.Command, args []string) error {
	return updateTranscript(args[0], func(s *conversation.Session) {
		s.Feed(args[1:])
	})
}

func runSessionUser(cmd *cobra.Command, args []string) error {
	return updateTranscript(args[0], func(s *conversation.Session) {
		s.AddUser(strings.Join(args[1:], " "))
	})
}

func updateTranscript(id string, update func(*conversation.Session)) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	t, err := store.Load(id)
	if err != nil {
		return err
	}

	session, err := t.Session(conversation.WithLogger(logger))
	if err != nil {
		return err
	}

	update(session)
	t.Capture(session)
	if err := store.Save(t); err != nil {
		return err
	}

	logger.Info("transcript updated", "id", t.ID, "messages", t.Messages.Len())
	return nil
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	t, err := loadTranscript(store, args)
	if err != nil {
		return err
	}

	return writeJSON(cmd.OutOrStdout(), t)
}

func runSessionList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	summaries, err := store.List(listEntry)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(summaries) == 0 {
		fmt.Fprintln(out, "No transcripts found.")
		return nil
	}

	for _, s := range summaries {
		fmt.Fprintf(out, "%s  %-24s %-10s %3d msgs  %6d/%-6d tokens  %s\n",
			s.ID, s.EntryID, s.Dialect, s.Messages,
			s.Usage.PromptTokens, s.Usage.CompletionTokens, s.Title)
	}
	return nil
}
