package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/gazette/internal/cli"
	api "github.com/aretw0/gazette/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves POST /api/v1/generate, the session endpoints, /health, /metrics and
the OpenAPI document. Requests run non-interactively unless they carry
scripted decisions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
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
		handler, err := api.NewHandler(sc, p,
			api.WithSessions(app.Sinks.Manager),
			api.WithHealthChecker(app.Backend),
			api.WithMetrics(app.Metrics.Handler()),
			api.WithDefaults(params),
			api.WithLogger(app.Logger),
		)
		if err != nil {
			return err
		}

		addr := app.Config.Server.Addr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		srv := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			fmt.Fprintf(app.IO.Err, "Starting Gazette Server on %s\n", srv.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)
		case <-sc.Done():
			fmt.Fprintf(app.IO.Err, "\nStart shutdown... Signal: %v\n", sc.Signal())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				app.Logger.Error("graceful shutdown did not complete", "error", err)
				return srv.Close()
			}
			fmt.Fprintln(app.IO.Err, "Gazette Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "Listen address (default from config, :8080)")
	cli.AddParameterFlags(serveCmd.Flags())
}
