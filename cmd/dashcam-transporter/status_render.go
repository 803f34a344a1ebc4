package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"dashcamtransporter/internal/ipc"
	"dashcamtransporter/internal/transfer"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 20
	statusIndent     = "  "
)

var titleCaser = cases.Title(language.English)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// humanLabel turns identifiers such as "join_dashcam" or "failed" into
// display labels.
func humanLabel(value string) string {
	value = strings.TrimSpace(strings.ReplaceAll(value, "_", " "))
	if value == "" {
		return "-"
	}
	return titleCaser.String(strings.ToLower(value))
}

func operationLabel(op string) string {
	switch transfer.Operation(op) {
	case transfer.OperationDashcamTransfer:
		return "Downloading from dashcam"
	case transfer.OperationHomeTransfer:
		return "Uploading at home"
	case transfer.OperationIdle, "":
		return "Idle"
	default:
		return humanLabel(op)
	}
}

func formatWhen(ts time.Time) string {
	if ts.IsZero() {
		return "never"
	}
	return humanize.Time(ts)
}

func daemonLines(resp *ipc.StatusResponse, colorize bool) []string {
	if resp == nil || !resp.Running {
		return []string{renderStatusLine("Transporter", statusError, "Not running", colorize)}
	}
	lines := []string{
		renderStatusLine("Transporter", statusOK, fmt.Sprintf("Running (pid %d)", resp.PID), colorize),
		renderStatusLine("Operation", statusInfo, operationLabel(resp.Operation), colorize),
	}
	if strings.TrimSpace(resp.Associated) == "" {
		lines = append(lines, renderStatusLine("Network", statusWarn, "Not associated", colorize))
	} else {
		lines = append(lines, renderStatusLine("Network", statusOK, resp.Associated, colorize))
	}
	lines = append(lines,
		renderStatusLine("Last action", statusInfo, fmt.Sprintf("%s (%s)", humanLabel(resp.LastAction), formatWhen(resp.LastTickAt)), colorize),
		renderStatusLine("Last pass", statusInfo, formatWhen(resp.LastPassAt), colorize),
	)
	if strings.TrimSpace(resp.LastError) != "" {
		lines = append(lines, renderStatusLine("Last error", statusError, resp.LastError, colorize))
	}
	lines = append(lines, renderStatusLine("Status LED", statusInfo, yesNo(resp.LEDActive), colorize))
	return lines
}

func transferFlagLines(resp *ipc.StatusResponse, colorize bool) []string {
	flag := func(label string, done bool) string {
		if done {
			return renderStatusLine(label, statusOK, "Done", colorize)
		}
		return renderStatusLine(label, statusWarn, "Pending", colorize)
	}
	return []string{
		flag("Dashcam drained", resp.DashcamDone),
		flag("Home upload", resp.HomeDone),
	}
}

func stagingLine(files int, bytes int64, colorize bool) string {
	if files == 0 {
		return renderStatusLine("Staged recordings", statusOK, "None waiting", colorize)
	}
	return renderStatusLine("Staged recordings", statusWarn,
		fmt.Sprintf("%d waiting (%s)", files, humanize.IBytes(uint64(bytes))), colorize)
}

func totalsRows(resp *ipc.StatusResponse) [][]string {
	return [][]string{
		{"Downloaded", fmt.Sprintf("%d", resp.Downloaded), humanize.IBytes(uint64(resp.DownloadedBytes))},
		{"Uploaded", fmt.Sprintf("%d", resp.Uploaded), ""},
		{"Failed attempts", fmt.Sprintf("%d", resp.Failures), ""},
	}
}
