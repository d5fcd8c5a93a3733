package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	logLevel  string
	logFormat string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	serve := newServeCommand(opts)

	root := &cobra.Command{
		Use:   "eventdesk",
		Short: "eventdesk - a small signed-in workspace for managing events",
		Long: `eventdesk serves a login-protected web app for creating, editing, searching
and favoriting events.

Users come from a YAML users file (USERS_FILE) or a single bootstrap identity
(BOOTSTRAP_EMAIL, BOOTSTRAP_PASSWORD). Events live in memory and can be seeded
from EVENTS_SEED_FILE at startup.`,
		SilenceUsage: true,
		// Run the serve command by default if no subcommand is specified
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve.RunE(cmd, args)
		},
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error) (default: info)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "log format (json, console) (default: json)")
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve)
	root.AddCommand(newVersionCommand())
	root.AddCommand(newHealthcheckCommand())
	root.AddCommand(newHashPasswordCommand())
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
