package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewRunCommand creates the one-shot pipeline command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	var structuredOnly bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the tariffs pipeline once and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Migrate(ctx); err != nil {
				return err
			}

			runCtx := ctx
			if timeout := a.cfg.PipelineRunTimeout(); timeout > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			result, err := a.Pipeline(ctx).Run(runCtx)
			if err != nil {
				a.logger.Error("tariffs pipeline failed", zap.Error(err))
				return fmt.Errorf("%w: %w", errPipelineFailed, err)
			}

			if structuredOnly {
				return printJSON(cmd, result.StructuredResponse)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "raw snapshot %s: %d rows parsed, %d rows exported\n",
				result.RawSnapshotID, result.ParsedRows, result.ExportedRows)
			return printJSON(cmd, result)
		},
	}

	cmd.Flags().BoolVar(&structuredOnly, "structured", false, "print only the structured response")
	return cmd
}
