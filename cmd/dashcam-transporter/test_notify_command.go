package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"dashcamtransporter/internal/ipc"
)

// newTestNotifyCommand asks the running daemon to publish a test message, so
// the check exercises the daemon's own topic and network path.
func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test ntfy notification through the running transporter",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd.Context(), func(callCtx context.Context, client *ipc.Client) error {
				resp, err := client.TestNotification(callCtx)
				if err != nil {
					return fmt.Errorf("test notification: %w", err)
				}
				if resp == nil {
					return errors.New("test notification: empty response")
				}
				kind, detail := statusWarn, "not sent"
				if resp.Sent {
					kind, detail = statusOK, "sent"
				}
				if resp.Message != "" {
					detail = resp.Message
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderStatusLine("Notification", kind, detail, shouldColorize(out)))
				return nil
			})
		},
	}
}
