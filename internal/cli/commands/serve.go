package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/jokebox/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the jokebox HTTP server.

The jokes table is created on startup if it does not exist. The server stops
gracefully on SIGINT or SIGTERM, letting in-flight requests finish.`,
		Example: `  # Serve on 127.0.0.1:3000 with data.db
  jokebox serve

  # Listen on all interfaces
  jokebox serve --host

  # Use PostgreSQL and return the whole list from GET /jokes
  JOKEBOX_DATABASE__DRIVER=postgres jokebox serve --collection-mode all`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd)
		},
	}

	cmd.Flags().Int("port", server.DefaultPort, "Port to listen on")
	cmd.Flags().Bool("host", false, "Listen on all interfaces (0.0.0.0) instead of 127.0.0.1")
	cmd.Flags().String("collection-mode", server.ModeRandom, "What GET /jokes returns (random|all)")

	_ = cmd.RegisterFlagCompletionFunc("collection-mode", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{server.ModeRandom, server.ModeAll}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	settings := cmdCtx.Cfg.ServerSettings()
	settings.Pool = cmdCtx.Pool
	settings.Store = cmdCtx.Store
	settings.Logger = cmdCtx.Logger

	srv := server.NewServer(settings)
	cmdCtx.Logger.Info("serving jokes",
		"driver", cmdCtx.Dialect.Name,
		"collection_mode", cmdCtx.Cfg.Server.CollectionMode,
		"pool_size", cmdCtx.Pool.Stats().Capacity,
	)
	return srv.Serve(ctx)
}
