package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stderr))
}

// execute runs the command graph and maps the outcome to a process exit code.
// Cancellation from SIGINT or SIGTERM is a clean exit for `run` and is not
// echoed as an error.
func execute(ctx context.Context, args []string, stderr io.Writer) int {
	root := newRootCommand()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 1
	default:
		fmt.Fprintf(stderr, "dashcam-transporter: %v\n", err)
		return 1
	}
}
