package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"promptgate/internal/ai"
	"promptgate/internal/gateway"
	"promptgate/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the web server.",
		Long: `Builds the AI provider once and serves the prompt page on all interfaces
at $PORT (default 5000). A missing API key does not stop the server: every
submission is then answered with a configuration error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadApp()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			provider, err := ai.NewProvider(ctx, cfg.AIOptions())
			switch {
			case errors.Is(err, ai.ErrMissingAPIKey):
				logger.Warn("GEMINI_API_KEY not found; AI generation will not be available")
			case err != nil:
				logger.Error("error configuring the AI provider; AI generation will not be available", "error", err)
			default:
				logger.Info("AI provider configured", "provider", provider.ID())
			}

			// provider is nil on error, which leaves the gateway unavailable.
			gw := gateway.New(provider, logger)
			return server.New(gw, logger).StartServer(ctx, cfg.Addr())
		},
	}
}
