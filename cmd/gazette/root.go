package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/gazette/internal/cli"
	"github.com/spf13/cobra"
)

var opts cli.Options

var rootCmd = &cobra.Command{
	Use:   "gazette",
	Short: "Gazette drafts, styles, titles and polishes news articles",
	Long: `Gazette runs raw news material through four generative stages
(draft, style, headline, polish) and asks for a decision after each one.
Every session is recorded to a CSV log, an optional event stream and a
session store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, cli.ErrSessionsFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.ConfigPath, "config", "", "Config file (default gazette.yaml)")
	pf.BoolVar(&opts.Debug, "debug", false, "Log at debug level to stderr")
	pf.BoolVar(&opts.Mock, "mock", false, "Use the canned mock backend")
	pf.BoolVar(&opts.JSON, "json", false, "Speak JSON Lines on stdin/stdout instead of text prompts")
	pf.BoolVar(&opts.ShowPrompts, "show-prompts", false, "Print every composed prompt to stderr")
	pf.StringVar(&opts.LogCSV, "log-csv", "", "CSV decision log path")
	pf.StringVar(&opts.LogJSONL, "log-jsonl", "", "JSON Lines event stream path")
	pf.StringVar(&opts.LogSQLite, "log-sqlite", "", "SQLite audit database path")
	pf.StringVar(&opts.PromptsDir, "prompts-dir", "", "Directory of prompt template overrides")
	pf.StringVar(&opts.StoreDir, "store-dir", "", "Directory of per-session JSON records")
}
