package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dashcamtransporter/internal/deps"
	"dashcamtransporter/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify settings, storage, upload targets and system tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			failed := 0
			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
					failed++
				}
				fmt.Fprintln(stdout, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("System Tools", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, status := range preflight.CheckSystemDeps(cmd.Context(), cfg) {
				switch {
				case status.Available && status.Detail != "":
					fmt.Fprintln(stdout, renderStatusLine(status.Name, statusWarn, status.Detail, colorize))
				case status.Available:
					fmt.Fprintln(stdout, renderStatusLine(status.Name, statusOK, toolDetail(status), colorize))
				case status.Optional:
					fmt.Fprintln(stdout, renderStatusLine(status.Name, statusWarn, status.Detail, colorize))
				default:
					failed++
					fmt.Fprintln(stdout, renderStatusLine(status.Name, statusError, status.Detail, colorize))
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d checks failed", failed)
			}
			return nil
		},
	}
}

func toolDetail(status deps.Status) string {
	if status.Version != "" {
		return status.Version + " (" + status.Path + ")"
	}
	return "Ready (" + status.Path + ")"
}
