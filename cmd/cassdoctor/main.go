// Package main provides the cassdoctor entrypoint: the chat service and the
// mock Cassandra MCP provider, selected by subcommand.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "cassdoctor",
		Short: "Chat service that operates Cassandra fleets through MCP tools",
		Long: `cassdoctor answers operational questions about managed Cassandra
fleets. A decision oracle picks the tools to run, an MCP provider executes
them, and the loop repeats until the question is answered.

Use 'cassdoctor serve' to start the chat API.
Use 'cassdoctor mcp-server' to run the mock tool provider over stdio.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMCPServerCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
