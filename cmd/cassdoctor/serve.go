package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cexll/cassdoctor/pkg/catalog"
	"github.com/cexll/cassdoctor/pkg/chat"
	"github.com/cexll/cassdoctor/pkg/config"
	"github.com/cexll/cassdoctor/pkg/httpapi"
	"github.com/cexll/cassdoctor/pkg/mcpclient"
	"github.com/cexll/cassdoctor/pkg/observability"
	"github.com/cexll/cassdoctor/pkg/oracle"
	"github.com/cexll/cassdoctor/pkg/session"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the chat HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runServe(cfg)
		},
	}
}

func runServe(cfg *config.Config) error {
	logger := observability.Logger()

	client := mcpclient.NewClient(cfg.MCPTarget)
	defer func() { _ = client.Close() }()

	var decider oracle.Oracle
	if cfg.UseMockOracle {
		decider = oracle.NewMock()
		logger.Warn("using the mock oracle; set OPENAI_API_KEY for real decisions")
	} else {
		decider = oracle.NewOpenAI(oracle.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		})
	}

	store := session.NewStore()
	engine, err := chat.NewEngine(chat.Config{
		Store:       store,
		Catalog:     catalog.New(),
		Source:      client,
		Provider:    client,
		Oracle:      decider,
		MaxRounds:   cfg.MaxRounds,
		CallTimeout: cfg.CallTimeout,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("chat API listening",
		"addr", cfg.Addr,
		"mcp_target", cfg.MCPTarget,
		"model", cfg.OpenAIModel,
		"max_rounds", cfg.MaxRounds)
	return httpapi.NewServer(engine, store).ListenAndServe(ctx, cfg.Addr)
}
