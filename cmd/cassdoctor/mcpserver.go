package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cexll/cassdoctor/pkg/mcpserver"
	"github.com/cexll/cassdoctor/pkg/observability"
)

func newMCPServerCmd() *cobra.Command {
	var httpAddr string

	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Run the mock Cassandra administration MCP provider",
		Long: `Serves the mock Cassandra tool surface over MCP. By default it talks
stdio, matching the "stdio://cassdoctor mcp-server" transport target; with
--addr it serves streamable HTTP instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			providers := mcpserver.MockProviders()
			if httpAddr == "" {
				return mcpserver.RunStdio(ctx, providers)
			}
			return runHTTP(ctx, httpAddr, providers)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "addr", "", "serve streamable HTTP on this address instead of stdio")
	return cmd
}

func runHTTP(ctx context.Context, addr string, providers mcpserver.Providers) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           mcpserver.Handler(mcpserver.New(providers)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	observability.Logger().Info("mcp provider listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
