package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/llm-duel/backend/internal/bootstrap"
	"github.com/llm-duel/backend/internal/session"
	"github.com/llm-duel/backend/pkg/config"
	"github.com/llm-duel/backend/pkg/logger"
)

var version = "dev"

// Replaced in tests.
var (
	loadConfig  = config.Load
	newComparer = func(ctx context.Context, cfg *config.Config) (session.Comparer, error) {
		return bootstrap.Orchestrator(ctx, cfg)
	}
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "duel",
		Short: "duel - compare two model configurations on one prompt",
		Long: `duel sends one prompt to two differently configured models, then asks
an analysis model to score both answers side by side.

Providers, models and API keys come from config.yaml or LLM_DUEL_* variables,
the same settings the API server uses.`,
		Version:      version,
		SilenceUsage: true,
	}

	logLevel := cmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn or error")
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return logger.Init(*logLevel, "console", "stderr")
	}

	cmd.AddCommand(newCompareCommand())
	cmd.AddCommand(newPersonasCommand())
	cmd.AddCommand(newPromptsCommand())

	return cmd
}

func execute() error {
	defer logger.Sync()
	return newRootCommand().Execute()
}
