package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"promptgate/internal/config"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "promptgate",
		Short: "PromptGate is a web page for sending prompts to a generative AI model.",
		Long: `A minimal web front end that forwards a prompt typed into an HTML form
to a text-generation API (Gemini by default) and renders the reply.

Configuration comes from the environment (GEMINI_API_KEY, PORT, ...),
an optional .env file in the working directory, and an optional
~/.config/promptgate/config.yaml.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			// Default action when no subcommand is given
			_ = cmd.Help()
		},
	}
	rootCmd.AddCommand(newServeCmd())
	return rootCmd
}

// loadApp reads the configuration and builds the logger that goes with it.
func loadApp() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(config.DotEnvFile)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	return cfg, logger, nil
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "promptgate: %v\n", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
