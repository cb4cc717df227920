package commands

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/jokebox/internal/pool"
	"github.com/leapstack-labs/jokebox/internal/store"
)

// NewAddCommand creates the add command.
func NewAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "add <url>",
		Short:   "Store a joke URL",
		Example: `  jokebox add https://example.com/jokes/42`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			rec, err := pool.WithConnection(cmd.Context(), cmdCtx.Pool, func(ctx context.Context, conn *sql.Conn) (*store.Record, error) {
				return cmdCtx.Store.Insert(ctx, conn, args[0])
			})
			if err != nil {
				return fmt.Errorf("failed to add joke: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added joke %d: %s\n", rec.ID, rec.URL)
			return nil
		},
	}
}
