package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/gazette/internal/cli"
	"github.com/aretw0/gazette/pkg/session"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage recorded sessions",
	Long:  `List, inspect, and remove the session records kept in the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all recorded sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessions(cmd, func(m *session.Manager) error {
			ids, err := m.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing sessions: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				fmt.Fprintln(out, "No sessions found.")
				return nil
			}
			fmt.Fprintln(out, "Sessions:")
			for _, id := range ids {
				fmt.Fprintln(out, "- "+id)
			}
			return nil
		})
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print the full record of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessions(cmd, func(m *session.Manager) error {
			detail, err := m.Load(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("loading session '%s': %w", args[0], err)
			}
			data, err := json.MarshalIndent(detail, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		})
	},
}

var sessionRmAll bool

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args: func(cmd *cobra.Command, args []string) error {
		if sessionRmAll {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSessions(cmd, func(m *session.Manager) error {
			ids := args
			if sessionRmAll {
				all, err := m.List(cmd.Context())
				if err != nil {
					return err
				}
				ids = all
			}
			var failed int
			for _, id := range ids {
				if err := m.Delete(cmd.Context(), id); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", id, err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", id)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d sessions not removed", failed, len(ids))
			}
			return nil
		})
	},
}

// withSessions opens the configured store for the duration of fn.
func withSessions(cmd *cobra.Command, fn func(*session.Manager) error) error {
	cfg, err := cli.LoadConfig(opts)
	if err != nil {
		return err
	}
	store, err := cli.OpenStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	var mopts []session.Option
	if store.Locker != nil {
		mopts = append(mopts, session.WithLocker(store.Locker))
	}
	return fn(session.NewManager(store, mopts...))
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionRmCmd.Flags().BoolVar(&sessionRmAll, "all", false, "Remove every session")
}
