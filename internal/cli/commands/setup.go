// Package commands implements the jokebox subcommands.
package commands

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/jokebox/internal/cli/config"
	"github.com/leapstack-labs/jokebox/internal/pool"
	"github.com/leapstack-labs/jokebox/internal/store"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg     *config.Config
	Logger  *slog.Logger
	DB      *sql.DB
	Dialect *store.Dialect
	Store   *store.Store
	Pool    *pool.Pool
}

// NewCommandContext opens the database, ensures the jokes table exists and
// wraps the connection in a pool.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	ctx := cmd.Context()
	cfg := config.GetConfig(ctx)
	logger := config.GetLogger(ctx)

	db, d, err := store.Open(ctx, cfg.StoreConfig(), logger)
	if err != nil {
		return nil, nil, err
	}

	if err := store.Migrate(db, d); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to prepare database: %w", err)
	}

	p := pool.New(db, cfg.PoolConfig(), logger)

	cleanup := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := p.Close(closeCtx); err != nil {
			logger.Warn("failed to close database", slog.Any("error", err))
		}
	}

	return &CommandContext{
		Cfg:     cfg,
		Logger:  logger,
		DB:      db,
		Dialect: d,
		Store:   store.New(d),
		Pool:    p,
	}, cleanup, nil
}
