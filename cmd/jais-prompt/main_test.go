package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags puts every flag in the command tree back to its default so
// values from one Execute do not leak into the next.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func testEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("JAIS_PROMPT_SESSIONS_DIR", filepath.Join(home, "sessions"))
	return home
}

func TestRenderCommand(t *testing.T) {
	testEnv(t)

	out, err := execute(t, `[{"role":"user","content":" hi "},{"role":"assistant","content":"hello"}]`, "render")
	require.NoError(t, err)

	want := "<|begin_of_text|>" +
		"<|start_header_id|>user<|end_header_id|>\n\nhi<|eot_id|>" +
		"<|start_header_id|>ai<|end_header_id|>\n\nhello<|eot_id|>" +
		"<|start_header_id|>ai<|end_header_id|>\n\n"
	assert.Equal(t, want, out)
}

func TestRenderCommand_MissingContent(t *testing.T) {
	testEnv(t)

	_, err := execute(t, `[{"role":"user"}]`, "render")
	assert.Error(t, err)
}

func TestParseCommand(t *testing.T) {
	testEnv(t)

	out, err := execute(t, `<think>look it up</think><tool_call>{"name": "search", "arguments": {"q": "go"}}</tool_call>`,
		"parse", "--prompt-tokens", "42", "--completion-tokens", "9", "--tool-calls")
	require.NoError(t, err)

	var got struct {
		ModelResponses   string `json:"model_responses"`
		ReasoningContent string `json:"reasoning_content"`
		InputToken       int    `json:"input_token"`
		OutputToken      int    `json:"output_token"`
		ToolCalls        []struct {
			Name string `json:"name"`
		} `json:"tool_calls"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	assert.Equal(t, "look it up", got.ReasoningContent)
	assert.Equal(t, `<tool_call>{"name": "search", "arguments": {"q": "go"}}</tool_call>`, got.ModelResponses)
	assert.Equal(t, 42, got.InputToken)
	assert.Equal(t, 9, got.OutputToken)
	require.Len(t, got.ToolCalls, 1)
	assert.Equal(t, "search", got.ToolCalls[0].Name)
}

func TestAppendResultsCommand(t *testing.T) {
	home := testEnv(t)
	path := filepath.Join(home, "history.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"role":"user","content":"q"}]`), 0o644))

	out, err := execute(t, "", "append", "results", "--history", path, "r1", "r2")
	require.NoError(t, err)

	var got []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 3)
	assert.Equal(t, "tool", got[1]["role"])
	assert.Equal(t, "<tool_call_response>r1</tool_call_response>", got[1]["content"])
	assert.Equal(t, "<tool_call_response>r2</tool_call_response>", got[2]["content"])
}

func TestSessionCommands(t *testing.T) {
	home := testEnv(t)
	catalogFile := filepath.Join(home, "functions.json")
	require.NoError(t, os.WriteFile(catalogFile, []byte(`[{"name":"add","description":"Add numbers","parameters":{"type":"dict","properties":{"a":{"type":"integer"},"b":{"type":"integer"}},"required":["a","b"]}}]`), 0o644))

	out, err := execute(t, "", "session", "new", "--entry", "simple_0", "--system", "You are a function caller.", "--user", "Add 2 and 3", "--catalog", catalogFile)
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.Len(t, id, 26)

	prompt, err := execute(t, "", "session", "prompt", id)
	require.NoError(t, err)
	assert.Contains(t, prompt, "<tools>\n{\"name\":\"add\"")

	out, err = execute(t, `<think>simple</think><tool_call>{"name": "add", "arguments": {"a": 2, "b": 3}}</tool_call>`,
		"session", "observe", id, "--prompt-tokens", "100", "--completion-tokens", "12")
	require.NoError(t, err)
	assert.Contains(t, out, `"add"`)

	_, err = execute(t, "", "session", "results", id, "5")
	require.NoError(t, err)

	out, err = execute(t, "", "session", "show", id)
	require.NoError(t, err)

	var transcript struct {
		EntryID  string `json:"entry_id"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		Usage struct {
			PromptTokens int `json:"prompt_tokens"`
		} `json:"usage"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &transcript))
	assert.Equal(t, "simple_0", transcript.EntryID)
	require.Len(t, transcript.Messages, 4)
	assert.Equal(t, "You are a function caller.", transcript.Messages[0].Content)
	assert.Equal(t, "assistant", transcript.Messages[2].Role)
	assert.Equal(t, "<tool_call_response>5</tool_call_response>", transcript.Messages[3].Content)
	assert.Equal(t, 100, transcript.Usage.PromptTokens)

	out, err = execute(t, "", "session", "list")
	require.NoError(t, err)
	assert.Contains(t, out, id)
}

func TestRenderThenPlainRender(t *testing.T) {
	home := testEnv(t)
	catalogFile := filepath.Join(home, "functions.json")
	require.NoError(t, os.WriteFile(catalogFile, []byte(`[{"name":"add"}]`), 0o644))

	history := `[{"role":"system","content":"sys"},{"role":"user","content":"hi"}]`

	out, err := execute(t, history, "render", "--catalog", catalogFile, "--pretty")
	require.NoError(t, err)
	assert.Contains(t, out, "<tools>")

	out, err = execute(t, history, "render")
	require.NoError(t, err)
	assert.NotContains(t, out, "<tools>")
	assert.True(t, strings.HasPrefix(out, "<|begin_of_text|><|start_header_id|>system<|end_header_id|>\n\nsys<|eot_id|>"))
}

func TestPrettyRenderNoColor(t *testing.T) {
	testEnv(t)

	history := `[{"role":"user","content":"hi"}]`
	plain, err := execute(t, history, "render")
	require.NoError(t, err)

	pretty, err := execute(t, history, "render", "--pretty", "--no-color")
	require.NoError(t, err)
	assert.Equal(t, plain, pretty)
	assert.NotContains(t, pretty, "\x1b[")
}

func TestAppendAssistantCommand(t *testing.T) {
	home := testEnv(t)
	path := filepath.Join(home, "history.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"role":"user","content":"q"}]`), 0o644))

	record := `{"model_responses":"<tool_call>{}</tool_call>","reasoning_content":"think first","input_token":3,"output_token":2}`
	out, err := execute(t, record, "append", "assistant", "--history", path)
	require.NoError(t, err)

	var got []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "assistant", got[1]["role"])
	assert.Equal(t, "<tool_call>{}</tool_call>", got[1]["content"])
	assert.Equal(t, "think first", got[1]["reasoning_content"])

	// stdout only; the file is untouched
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"role":"user","content":"q"}]`, string(data))
}

func TestAppendResultsCommand_Write(t *testing.T) {
	home := testEnv(t)
	path := filepath.Join(home, "history.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"role":"user","content":"q"}]`), 0o644))

	out, err := execute(t, "", "append", "results", "--history", path, "--write", "r1")
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got []map[string]string
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, "tool", got[1]["role"])
	assert.Equal(t, "<tool_call_response>r1</tool_call_response>", got[1]["content"])
}

func TestAppendCommand_WriteStdin(t *testing.T) {
	home := testEnv(t)
	history := `[{"role":"user","content":"q"}]`

	wd, wdErr := os.Getwd()
	require.NoError(t, wdErr)
	require.NoError(t, os.Chdir(home))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	_, err := execute(t, history, "append", "results", "--history", "-", "--write", "r1")
	assert.Error(t, err)

	recordFile := filepath.Join(home, "record.json")
	require.NoError(t, os.WriteFile(recordFile, []byte(`{"model_responses":"a"}`), 0o644))
	_, err = execute(t, history, "append", "assistant", "--history", "-", "--record", recordFile, "-w")
	assert.Error(t, err)

	_, statErr := os.Stat(filepath.Join(home, "-"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSessionNewWithoutSystem(t *testing.T) {
	home := testEnv(t)
	catalogFile := filepath.Join(home, "functions.json")
	require.NoError(t, os.WriteFile(catalogFile, []byte(`[{"name":"add","description":"Add numbers"}]`), 0o644))

	out, err := execute(t, "", "session", "new", "--entry", "simple_1", "--user", "Add 2 and 3", "--catalog", catalogFile)
	require.NoError(t, err)
	id := strings.TrimSpace(out)

	prompt, err := execute(t, "", "session", "prompt", id)
	require.NoError(t, err)
	assert.Contains(t, prompt, "<|start_header_id|>system<|end_header_id|>\n\n<tools>\n{\"name\":\"add\"")
}

func TestSessionUserCommand(t *testing.T) {
	testEnv(t)

	out, err := execute(t, "", "session", "new", "--entry", "multi_turn_0", "--user", "first question")
	require.NoError(t, err)
	id := strings.TrimSpace(out)

	_, err = execute(t, "", "session", "user", id, "follow", "up")
	require.NoError(t, err)

	out, err = execute(t, "", "session", "show", id)
	require.NoError(t, err)

	var transcript struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &transcript))
	require.Len(t, transcript.Messages, 2)
	assert.Equal(t, "user", transcript.Messages[1].Role)
	assert.Equal(t, "follow up", transcript.Messages[1].Content)
}

func TestDialectsCommand(t *testing.T) {
	testEnv(t)

	out, err := execute(t, "", "dialects")
	require.NoError(t, err)
	assert.Contains(t, out, "* jais_plus")
	assert.Contains(t, out, "llama3")
}
