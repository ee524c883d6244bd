package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewRetentionCommand creates the one-shot retention command.
func NewRetentionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "retention",
		Short: "Purge raw files and snapshots and prune normalized rows once",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.Retention().RunAll(ctx)
			if printErr := printJSON(cmd, report); printErr != nil {
				return printErr
			}
			if err != nil {
				a.logger.Error("retention finished with errors", zap.Error(err))
			}
			return err
		},
	}
}
