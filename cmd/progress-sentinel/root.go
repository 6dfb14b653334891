package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var logLevelFlag string

	ctx := newCommandContext(&logLevelFlag)

	rootCmd := &cobra.Command{
		Use:           "progress-sentinel",
		Short:         "Relay progress document updates to WhatsApp",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Override PS_LOG_LEVEL")

	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newSendCommand(ctx))

	return rootCmd
}
