package main

import (
	"fmt"
	"log"

	"github.com/aretw0/gazette"
	"github.com/aretw0/gazette/internal/cli"
	"github.com/aretw0/gazette/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the pipeline as MCP tools (generate_article, list_sessions,
get_session) so that AI agents can request articles.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		app, err := cli.Setup(sc, opts, cli.StdIO())
		if err != nil {
			return err
		}
		defer app.Close()

		params, err := cli.ApplyParameterFlags(cmd.Flags(), app.Config.Parameters)
		if err != nil {
			return err
		}
		p, err := app.Pipeline(nil)
		if err != nil {
			return err
		}
		srv := mcp.NewServer(p, gazette.Version,
			mcp.WithSessions(app.Sinks.Manager),
			mcp.WithDefaults(params),
			mcp.WithLogger(app.Logger),
		)

		switch transport {
		case "stdio":
			// Stdout carries JSON-RPC.
			log.SetOutput(app.IO.Err)
			app.Logger.Info("starting MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			addr := fmt.Sprintf(":%d", port)
			return srv.ServeSSE(sc, addr, fmt.Sprintf("http://localhost:%d", port))
		}
		return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
	cli.AddParameterFlags(mcpCmd.Flags())
}
