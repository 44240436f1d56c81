package main

import (
	"fmt"

	"github.com/aretw0/gazette/internal/cli"
	"github.com/aretw0/gazette/pkg/domain"
	"github.com/aretw0/gazette/pkg/prompt"
	"github.com/spf13/cobra"
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Inspect prompt templates",
}

var promptShowCmd = &cobra.Command{
	Use:   "show [stage]...",
	Short: "Print the composed prompt of one or more stages",
	Long: `Composes the prompts with the configured parameters, the parameter flags
and any --prompts-dir overrides. Stage inputs are left as {placeholders}.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig(opts)
		if err != nil {
			return err
		}
		params, err := cli.ApplyParameterFlags(cmd.Flags(), cfg.Parameters)
		if err != nil {
			return err
		}
		var popts []prompt.Option
		if cfg.PromptsDir != "" {
			popts = append(popts, prompt.WithOverridesDir(cfg.PromptsDir))
		}
		m, err := prompt.New(popts...)
		if err != nil {
			return err
		}

		stages := domain.Stages
		if len(args) > 0 {
			stages = nil
			for _, a := range args {
				st, err := domain.ParseStage(a)
				if err != nil {
					return err
				}
				stages = append(stages, st)
			}
		}
		out := cmd.OutOrStdout()
		for _, st := range stages {
			p, err := m.Compose(st, nil, params, "")
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "===== %s =====\n%s\n\n", st, prompt.Preview(p))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.AddCommand(promptShowCmd)
	cli.AddParameterFlags(promptShowCmd.Flags())
}
