package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

// LogFileName is the stable name that points at the current run's log file.
const LogFileName = "dashcam-transporter.log"

// Options describes logger construction parameters.
type Options struct {
	// Level is debug, info, warn, error or silent. Unknown values mean info.
	Level string
	// Format is console, json or auto.
	Format string
	// OutputPaths lists "stdout", "stderr" or file paths. Empty means stdout.
	OutputPaths []string
	// Development adds caller locations to every line.
	Development bool
}

// New constructs a slog logger. Pass identifiers stored with WithPass are
// attached to every record logged through a context-aware call.
func New(opts Options) (*slog.Logger, error) {
	level, silent := parseLevel(opts.Level)
	if silent {
		return NewNop(), nil
	}

	w, err := openOutputs(opts.OutputPaths)
	if err != nil {
		return nil, err
	}
	addSource := opts.Development || level <= slog.LevelDebug

	var handler slog.Handler
	switch format := resolveFormat(opts.Format); format {
	case "json":
		handler = newJSONHandler(w, level, addSource)
	case "console":
		handler = newConsoleHandler(w, level, addSource)
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}
	return slog.New(passHandler{next: handler}), nil
}

func resolveFormat(raw string) string {
	format := strings.ToLower(strings.TrimSpace(raw))
	switch format {
	case "":
		return "console"
	case "auto":
		fd := os.Stdout.Fd()
		if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
			return "console"
		}
		return "json"
	}
	return format
}

func parseLevel(raw string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "silent":
		return 0, true
	case "debug":
		return slog.LevelDebug, false
	case "warn", "warning":
		return slog.LevelWarn, false
	case "error":
		return slog.LevelError, false
	}
	return slog.LevelInfo, false
}

// openOutputs resolves output names into a single writer. Files are opened
// for append so a restarted daemon never truncates a run log.
func openOutputs(paths []string) (io.Writer, error) {
	var writers []io.Writer
	seen := make(map[string]bool, len(paths))
	for _, raw := range paths {
		name := strings.TrimSpace(raw)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		if std := standardStream(name); std != nil {
			writers = append(writers, std)
			continue
		}
		if dir := filepath.Dir(name); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create log directory %s: %w", dir, err)
			}
		}
		file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", name, err)
		}
		writers = append(writers, file)
	}

	if len(writers) == 0 {
		return os.Stdout, nil
	}
	if len(writers) == 1 {
		return writers[0], nil
	}
	return io.MultiWriter(writers...), nil
}

func standardStream(name string) io.Writer {
	switch name {
	case "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	}
	return nil
}

func newJSONHandler(w io.Writer, level slog.Level, addSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: addSource,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				if attr.Value.Kind() == slog.KindTime {
					return slog.String("ts", attr.Value.Time().UTC().Format(time.RFC3339))
				}
				attr.Key = "ts"
			case slog.LevelKey:
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			case slog.SourceKey:
				if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
					attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
				}
			}
			return attr
		},
	})
}

// passHandler copies pass fields carried by the record context onto the
// record unless the logger already has them bound.
type passHandler struct {
	next  slog.Handler
	bound bool
}

func (h passHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h passHandler) Handle(ctx context.Context, record slog.Record) error {
	if !h.bound {
		if fields := ContextFields(ctx); len(fields) > 0 {
			record = record.Clone()
			record.AddAttrs(fields...)
		}
	}
	return h.next.Handle(ctx, record)
}

func (h passHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := h.bound
	for _, attr := range attrs {
		if attr.Key == FieldPassID {
			bound = true
		}
	}
	return passHandler{next: h.next.WithAttrs(attrs), bound: bound}
}

func (h passHandler) WithGroup(name string) slog.Handler {
	return passHandler{next: h.next.WithGroup(name), bound: h.bound}
}
