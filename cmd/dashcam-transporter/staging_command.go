package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"dashcamtransporter/internal/logging"
	"dashcamtransporter/internal/staging"
)

func newStagingCommand(ctx *commandContext) *cobra.Command {
	stagingCmd := &cobra.Command{
		Use:   "staging",
		Short: "Inspect the local staging directory",
	}
	stagingCmd.AddCommand(newStagingListCommand(ctx))
	stagingCmd.AddCommand(newStagingCleanCommand(ctx))
	return stagingCmd
}

func newStagingListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recordings waiting for upload",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			files, err := staging.List(cfg.LockedDir())
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), files)
			}
			stdout := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintf(stdout, "No recordings staged in %s\n", cfg.LockedDir())
				return nil
			}
			rows := make([][]string, 0, len(files))
			var total int64
			for _, f := range files {
				total += f.Size
				rows = append(rows, []string{f.Name, humanize.IBytes(uint64(f.Size)), humanize.Time(f.ModTime)})
			}
			fmt.Fprint(stdout, tableSpec{
				Headers: []string{"File", "Size", "Staged"},
				Rows:    rows,
				Aligns:  []columnAlignment{alignLeft, alignRight, alignLeft},
				Footer:  []string{fmt.Sprintf("%d files", len(files)), humanize.IBytes(uint64(total)), ""},
			}.render())
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output files as JSON")
	return cmd
}

func newStagingCleanCommand(ctx *commandContext) *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove leftover partial downloads",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			age := maxAge
			if age <= 0 {
				age = cfg.StalePartAge()
			}
			result := staging.CleanStalePartials(cmd.Context(), cfg.LockedDir(), age, logging.NewNop())
			stdout := cmd.OutOrStdout()
			for _, path := range result.Removed {
				fmt.Fprintf(stdout, "Removed %s\n", path)
			}
			for _, failure := range result.Errors {
				fmt.Fprintf(stdout, "Failed to remove %s: %v\n", failure.Path, failure.Error)
			}
			switch {
			case len(result.Removed) > 0:
				fmt.Fprintf(stdout, "Reclaimed %s\n", humanize.IBytes(uint64(result.Reclaimed)))
			case len(result.Errors) == 0:
				fmt.Fprintln(stdout, "No stale partial downloads found")
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d partial downloads could not be removed", len(result.Errors))
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&maxAge, "older-than", 0, "Only remove partial downloads older than this (defaults to workflow.stale_part_hours)")
	return cmd
}
