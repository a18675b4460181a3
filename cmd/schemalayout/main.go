package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/matzehuels/schemalayout/internal/cli"
	"github.com/matzehuels/schemalayout/pkg/errors"
)

// Exit codes. Scripts driving layout jobs branch on these.
const (
	exitOK          = 0
	exitFailure     = 1
	exitInvalid     = 2 // bad schema, options, flags or paths
	exitNotFound    = 3
	exitInterrupted = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the command line and returns the process exit code. Errors
// are reported on stderr here rather than by cobra, so each is printed once.
func execute(ctx context.Context, args []string, stderr io.Writer) int {
	var verbose bool

	c := cli.New(stderr, cli.LogInfo)
	root := c.RootCommand()
	root.SilenceErrors = true
	root.SetArgs(args)
	root.SetErr(stderr)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return errors.Wrap(errors.ErrCodeInvalidOption, err, "%s", cmd.CommandPath())
	})

	prev := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		}
		if prev != nil {
			return prev(cmd, args)
		}
		return nil
	}

	err := root.ExecuteContext(ctx)
	code := exitCode(err)
	if code != exitOK && code != exitInterrupted {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return code
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if stderrors.Is(err, context.Canceled) {
		return exitInterrupted
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidSchema, errors.ErrCodeInvalidGraph,
		errors.ErrCodeInvalidOption, errors.ErrCodeInvalidPath, errors.ErrCodeInvalidRequest,
		errors.ErrCodeInvalidMethod:
		return exitInvalid
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return exitNotFound
	}
	return exitFailure
}
