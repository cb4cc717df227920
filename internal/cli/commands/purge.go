package commands

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/jokebox/internal/pool"
)

// NewPurgeCommand creates the purge command.
func NewPurgeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete every stored joke",
		Long:  `Delete every stored joke. Ids are not reused afterwards.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := pool.WithConnection(cmd.Context(), cmdCtx.Pool, func(ctx context.Context, conn *sql.Conn) (int64, error) {
				return cmdCtx.Store.DeleteAll(ctx, conn)
			})
			if err != nil {
				return fmt.Errorf("failed to purge jokes: %w", err)
			}

			if n == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No jokes to delete")
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d jokes\n", n)
			return nil
		},
	}
}
