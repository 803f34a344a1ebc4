package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dashcamtransporter/internal/config"
	"dashcamtransporter/internal/logging"
	"dashcamtransporter/internal/wifi"
)

func newWiFiCommand(ctx *commandContext) *cobra.Command {
	wifiCmd := &cobra.Command{
		Use:   "wifi",
		Short: "Inspect and switch the wireless association",
	}
	wifiCmd.AddCommand(newWiFiStatusCommand(ctx))
	wifiCmd.AddCommand(newWiFiConnectCommand(ctx))
	wifiCmd.AddCommand(newWiFiDisconnectCommand(ctx))
	return wifiCmd
}

func radioFor(cfg *config.Config) *wifi.NMCLI {
	return wifi.New(cfg.WiFi.NmcliBinary, cfg.WiFi.Interface, logging.NewNop())
}

func newWiFiStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current association and which configured networks are visible",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			radio := radioFor(cfg)
			current, err := radio.Current(cmd.Context())
			if err != nil {
				return fmt.Errorf("query association: %w", err)
			}
			visible, err := radio.Scan(cmd.Context())
			if err != nil {
				return fmt.Errorf("scan networks: %w", err)
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)
			for _, line := range renderSectionHeader("Wireless", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if current == "" {
				fmt.Fprintln(stdout, renderStatusLine("Associated", statusWarn, "none", colorize))
			} else {
				fmt.Fprintln(stdout, renderStatusLine("Associated", statusOK, current, colorize))
			}
			for _, line := range networkVisibilityLines(cfg, current, visible, colorize) {
				fmt.Fprintln(stdout, line)
			}
			return nil
		},
	}
}

func networkVisibilityLines(cfg *config.Config, current string, visible []string, colorize bool) []string {
	seen := make(map[string]bool, len(visible))
	for _, ssid := range visible {
		seen[ssid] = true
	}
	describe := func(label, ssid string) string {
		switch {
		case strings.TrimSpace(ssid) == "":
			return renderStatusLine(label, statusError, "not configured", colorize)
		case ssid == current:
			return renderStatusLine(label, statusOK, ssid+" (associated)", colorize)
		case seen[ssid]:
			return renderStatusLine(label, statusOK, ssid+" (in range)", colorize)
		default:
			return renderStatusLine(label, statusWarn, ssid+" (out of range)", colorize)
		}
	}
	return []string{
		describe("Dashcam network", cfg.Dashcam.SSID),
		describe("Home network", cfg.Home.SSID),
	}
}

func newWiFiConnectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:       "connect <dashcam|home>",
		Short:     "Join the configured dashcam or home network",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"dashcam", "home"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var ssid, password string
			switch strings.ToLower(strings.TrimSpace(args[0])) {
			case "dashcam":
				ssid, password = cfg.Dashcam.SSID, cfg.Dashcam.Password
			case "home":
				ssid, password = cfg.Home.SSID, cfg.Home.Password
			default:
				return fmt.Errorf("unknown network %q (expected dashcam or home)", args[0])
			}
			if strings.TrimSpace(ssid) == "" {
				return fmt.Errorf("%s network ssid is not configured", args[0])
			}
			if err := radioFor(cfg).Connect(cmd.Context(), ssid, password); err != nil {
				if errors.Is(err, wifi.ErrNetworkNotFound) {
					return fmt.Errorf("network %q is not in range", ssid)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Connected to %s\n", ssid)
			return nil
		},
	}
}

func newWiFiDisconnectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Drop the current wireless association",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := radioFor(cfg).Disconnect(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Disconnected")
			return nil
		},
	}
}
