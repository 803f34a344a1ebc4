package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dashcamtransporter/internal/ipc"
	"dashcamtransporter/internal/staging"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show transfer loop, staging and history status",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, dialErr := fetchStatus(cmd.Context(), ctx)
			if jsonOutput {
				if dialErr != nil {
					return dialErr
				}
				return writeJSON(cmd.OutOrStdout(), resp)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Transporter", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range daemonLines(resp, colorize) {
				fmt.Fprintln(stdout, line)
			}
			if dialErr != nil {
				fmt.Fprintln(stdout, renderStatusLine("Socket", statusWarn, dialErr.Error(), colorize))
			}
			fmt.Fprintln(stdout)

			cfg, _ := ctx.ensureConfig()
			if cfg != nil {
				for _, line := range renderSectionHeader("Settings", colorize) {
					fmt.Fprintln(stdout, line)
				}
				if missing := cfg.MissingRequired(); len(missing) > 0 {
					fmt.Fprintln(stdout, renderStatusLine("Settings", statusError, "missing "+strings.Join(missing, ", "), colorize))
				} else {
					fmt.Fprintln(stdout, renderStatusLine("Settings", statusOK, "complete", colorize))
				}
				fmt.Fprintln(stdout, renderStatusLine("Dashcam", statusInfo, fmt.Sprintf("%s on %q", cfg.Dashcam.Model, cfg.Dashcam.SSID), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Home network", statusInfo, cfg.Home.SSID, colorize))
				fmt.Fprintln(stdout)
			}

			for _, line := range renderSectionHeader("Transfers", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if resp != nil && resp.Running {
				for _, line := range transferFlagLines(resp, colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, stagingLine(resp.StagedFiles, resp.StagedBytes, colorize))
			} else if cfg != nil {
				count, bytes, err := staging.Summary(cfg.LockedDir())
				if err != nil {
					fmt.Fprintln(stdout, renderStatusLine("Staged recordings", statusError, err.Error(), colorize))
				} else {
					fmt.Fprintln(stdout, stagingLine(count, bytes, colorize))
				}
			}

			if resp == nil || !resp.Running {
				return nil
			}
			fmt.Fprintln(stdout)
			for _, line := range renderSectionHeader("History", colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprint(stdout, renderTable(
				[]string{"Kind", "Files", "Size"},
				totalsRows(resp),
				[]columnAlignment{alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the daemon status as JSON")
	return cmd
}

// fetchStatus queries the daemon. A dial failure is returned alongside a nil
// response so callers can still render local information.
func fetchStatus(goCtx context.Context, ctx *commandContext) (*ipc.StatusResponse, error) {
	var resp *ipc.StatusResponse
	err := ctx.withClient(goCtx, func(callCtx context.Context, client *ipc.Client) error {
		var err error
		resp, err = client.Status(callCtx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
