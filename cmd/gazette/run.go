package main

import (
	"fmt"

	"github.com/aretw0/gazette/internal/cli"
	"github.com/spf13/cobra"
)

var inputs cli.Inputs

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate one article",
	Long: `Runs a single document through the pipeline, asking for a decision after
every stage unless --non-interactive is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return execute(cmd, func(n int) error {
			if n != 1 {
				return fmt.Errorf("run takes exactly one document, got %d; use batch", n)
			}
			return nil
		})
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Generate one article per input document",
	Long: `Runs every collected document. A failed document never stops the others.
Interactive batches run one document at a time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("concurrency") && concurrency < 1 {
			return fmt.Errorf("--concurrency must be >= 1")
		}
		return execute(cmd, nil)
	},
}

var concurrency int

// execute loads the documents and runs them. check may reject the document count.
func execute(cmd *cobra.Command, check func(n int) error) error {
	sc := cli.NewSignalContext(cmd.Context())
	defer sc.Cancel()

	app, err := cli.Setup(sc, opts, cli.StdIO())
	if err != nil {
		return err
	}
	defer app.Close()

	if concurrency > 0 {
		app.Config.Batch.Concurrency = concurrency
	}
	params, err := cli.ApplyParameterFlags(cmd.Flags(), app.Config.Parameters)
	if err != nil {
		return err
	}
	docs, err := cli.LoadDocuments(sc, inputs, app.Logger)
	if err != nil {
		return err
	}
	if check != nil {
		if err := check(len(docs)); err != nil {
			return err
		}
	}

	err = cli.RunDocuments(sc, app, docs, params)
	if sig := sc.Signal(); sig != nil {
		app.Logger.Warn("interrupted", "signal", sig)
	}
	return err
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&inputs.RawData, "raw-data", "", "Raw news text")
	cmd.Flags().StringSliceVar(&inputs.Files, "files", nil, "Text files, directories or glob patterns")
	cmd.Flags().StringVar(&inputs.Corpus, "corpus", "", "Markdown corpus directory (frontmatter overrides parameters)")
	cli.AddParameterFlags(cmd.Flags())
}

func init() {
	addInputFlags(runCmd)
	addInputFlags(batchCmd)
	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "Documents processed at once, non-interactive only (default from config)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(batchCmd)
}
