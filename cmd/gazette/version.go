package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/gazette"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of gazette",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "gazette version %s\n", strings.TrimSpace(gazette.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
