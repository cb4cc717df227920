package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/jokebox/internal/store"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the jokes table if it does not exist",
		Long: `Apply the schema migrations for the configured database. Running it again
is a no-op.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			version, err := store.MigrationVersion(cmdCtx.DB, cmdCtx.Dialect)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s database at schema version %d\n", cmdCtx.Dialect.Name, version)
			return nil
		},
	}
}
