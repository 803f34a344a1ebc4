package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"dashcamtransporter/internal/history"
	"dashcamtransporter/internal/ipc"
)

const historyTimeLayout = "2006-01-02 15:04:05"

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool
	var failedOnly bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent per-file transfer outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return errors.New("--limit must be positive")
			}
			return ctx.withClient(cmd.Context(), func(callCtx context.Context, client *ipc.Client) error {
				resp, err := client.History(callCtx, limit)
				if err != nil {
					return err
				}
				entries := resp.Entries
				if failedOnly {
					entries = filterFailed(entries)
				}
				if jsonOutput {
					return writeJSON(cmd.OutOrStdout(), entries)
				}
				stdout := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(stdout, "No transfers recorded")
					return nil
				}
				fmt.Fprint(stdout, renderTable(
					[]string{"Time", "Direction", "File", "Size", "Target", "Outcome", "Error"},
					historyRows(entries),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Only show failed attempts")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output entries as JSON")
	return cmd
}

func historyRows(entries []ipc.HistoryEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		size := "-"
		if entry.SizeBytes > 0 {
			size = humanize.IBytes(uint64(entry.SizeBytes))
		}
		target := entry.Target
		if strings.TrimSpace(target) == "" {
			target = "-"
		}
		errText := "-"
		if entry.ErrorKind != "" {
			errText = entry.ErrorKind
			if entry.ErrorMessage != "" {
				errText += ": " + truncate(entry.ErrorMessage, 60)
			}
		}
		rows = append(rows, []string{
			entry.RecordedAt.Local().Format(historyTimeLayout),
			humanLabel(entry.Direction),
			entry.File,
			size,
			target,
			humanLabel(entry.Outcome),
			errText,
		})
	}
	return rows
}

func filterFailed(entries []ipc.HistoryEntry) []ipc.HistoryEntry {
	filtered := make([]ipc.HistoryEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Outcome != history.OutcomeSuccess {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max-1]) + "…"
}
