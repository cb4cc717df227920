package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/jokebox/internal/cli/config"
)

// NewConfigCommand creates the config command.
func NewConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after merging defaults, the config file,
JOKEBOX_* environment variables and flags. The database password is masked.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetConfig(cmd.Context())

			out, err := yaml.Marshal(cfg.Redacted())
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}

			w := cmd.OutOrStdout()
			if cfg.FileUsed != "" {
				_, _ = fmt.Fprintf(w, "# loaded from %s\n", cfg.FileUsed)
			}
			_, _ = w.Write(out)
			return nil
		},
	}
}
