package cli

import (
	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the schema and seed command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the storage schema and seed spreadsheet ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Migrate(ctx)
		},
	}
}
