package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvFile   string
	LogLevel  string
	LogFormat string
}

// NewRootCommand creates the root command for the tariffsd CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tariffsd",
		Short: "Tariffs box ingestion service",
		Long: `Fetches the tariffs box dataset, archives and normalizes it, publishes it
to Google Sheets and enforces retention on everything it stores.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "optional .env file with configuration")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "override LOG_LEVEL (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "override LOG_FORMAT (json|console)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewRetentionCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}
