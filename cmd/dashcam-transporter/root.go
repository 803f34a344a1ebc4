package main

import (
	"github.com/spf13/cobra"
)

// skipConfigAnnotation marks commands that must run with an incomplete or
// missing settings file.
const skipConfigAnnotation = "skipConfigLoad"

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	root := &cobra.Command{
		Use:           "dashcam-transporter",
		Short:         "Move locked dashcam recordings to home storage",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if skipsConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&ctx.socketFlag, "socket", "", "Path to the transporter daemon socket (default: <state_dir>/dashcam-transporter.sock)")
	flags.StringVarP(&ctx.configFlag, "config", "c", "", "Settings file path")

	root.AddCommand(
		newRunCommand(ctx),
		newStatusCommand(ctx),
		newHistoryCommand(ctx),
		newStagingCommand(ctx),
		newCheckCommand(ctx),
		newWiFiCommand(ctx),
		newTestNotifyCommand(ctx),
		newConfigCommand(ctx),
	)
	return root
}

func skipsConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipConfigAnnotation] == "true" {
			return true
		}
	}
	return false
}
