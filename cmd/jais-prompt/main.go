package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nachoal/jais-prompt-go/config"
	"github.com/nachoal/jais-prompt-go/internal/logging"
	"github.com/nachoal/jais-prompt-go/internal/styles"
	"github.com/nachoal/jais-prompt-go/template"
)

var (
	// Flags
	configFile string
	verbose    bool

	// Resolved in PersistentPreRunE
	cfg    *config.Config
	logger = logging.Discard()

	// Root command
	rootCmd = &cobra.Command{
		Use:               "jais-prompt",
		Short:             "Render and parse JaisPlus function-calling prompts",
		Long:              "jais-prompt converts role-tagged conversations into Llama-style prompts and parses raw completions back into structured fields.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	// Dialects command
	dialectsCmd = &cobra.Command{
		Use:   "dialects",
		Short: "List available template dialects",
		Run:   listDialects,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ~/.jais-prompt/config.yaml)")
	rootCmd.PersistentFlags().String("dialect", "", "Template dialect (jais_plus, llama3)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("sessions-dir", "", "Directory for saved transcripts")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(dialectsCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(appendCmd)
	rootCmd.AddCommand(sessionCmd)
}

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	v := viper.New()

	flags := cmd.Flags()
	for key, flag := range map[string]string{
		"dialect":      "dialect",
		"log_level":    "log-level",
		"sessions_dir": "sessions-dir",
		"no_color":     "no-color",
	} {
		if f := flags.Lookup(flag); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	loaded, err := config.Load(v, configFile)
	if err != nil {
		return err
	}
	cfg = loaded

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if verbose {
		level = slog.LevelDebug
	}
	logger = logging.New(os.Stderr, level, cfg.NoColor)

	logger.Debug("configuration loaded", "dialect", cfg.Dialect, "sessions_dir", cfg.SessionsDir)
	return nil
}

func currentDialect() (template.Dialect, error) {
	d, err := template.Lookup(cfg.Dialect)
	if err != nil {
		return template.Dialect{}, fmt.Errorf("%w (available: %v)", err, template.Names())
	}
	return d, nil
}

func listDialects(cmd *cobra.Command, args []string) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Available dialects:")
	for _, name := range template.Names() {
		marker := " "
		if cfg != nil && name == cfg.Dialect {
			marker = "*"
		}
		fmt.Fprintf(out, "  %s %s\n", marker, name)
	}
}

func theme(cmd *cobra.Command) styles.Styles {
	return styles.New(styles.DefaultTheme, cmd.OutOrStdout(), cfg != nil && cfg.NoColor)
}

// readInput reads a file, or stdin when path is "-"
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
