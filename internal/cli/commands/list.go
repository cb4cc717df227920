package commands

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/jokebox/internal/pool"
	"github.com/leapstack-labs/jokebox/internal/store"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all stored jokes",
		Example: `  # Print a table of jokes
  jokebox list

  # Print the same list the HTTP API returns
  jokebox list --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			records, err := pool.WithConnection(cmd.Context(), cmdCtx.Pool, func(ctx context.Context, conn *sql.Conn) ([]store.Record, error) {
				return cmdCtx.Store.ListAll(ctx, conn)
			})
			if err != nil {
				return fmt.Errorf("failed to list jokes: %w", err)
			}

			if asJSON {
				return renderJSON(cmd.OutOrStdout(), records)
			}
			renderTable(cmd.OutOrStdout(), records)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func renderTable(w io.Writer, records []store.Record) {
	if len(records) == 0 {
		_, _ = fmt.Fprintln(w, "(0 jokes)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "URL"})
	for _, rec := range records {
		t.AppendRow(table.Row{rec.ID, rec.URL})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d jokes)\n", len(records))
}

func renderJSON(w io.Writer, records []store.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
