package main

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/gazette/internal/cli"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Check the backend and list its models",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig(opts)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		backend, err := cli.NewBackend(ctx, cfg.Backend)
		if err != nil {
			return err
		}
		if err := backend.Health(ctx); err != nil {
			return fmt.Errorf("backend %s unreachable: %w", cfg.Backend.Provider, err)
		}
		models, err := backend.Models(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Backend: %s\n", cfg.Backend.Provider)
		for _, m := range models {
			fmt.Fprintln(out, "- "+m)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
