package main

import (
	"github.com/spf13/cobra"

	"dashcamtransporter/internal/daemonrun"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts daemonrun.Options

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the transfer loop in the foreground",
		Long: "Run the transfer loop in the foreground until SIGINT or SIGTERM.\n\n" +
			"The process waits for the dashcam and home network settings to be filled in " +
			"before it starts moving recordings.",
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return daemonrun.Run(cmd.Context(), ctx.configPath(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&opts.Development, "dev", false, "Include source locations in log output")
	return cmd
}
