package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/schemalayout/pkg/worker"
)

// shutdownTimeout bounds how long serve waits for in-flight jobs.
const shutdownTimeout = 30 * time.Second

// workerCommand creates the stdio worker command.
func (c *CLI) workerCommand() *cobra.Command {
	var (
		flags  layoutFlags
		cflags cacheFlags
	)

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Serve layout jobs as JSON lines on stdin and stdout",
		Long: `Serve layout jobs as JSON lines on stdin and stdout.

Each input line is a request:

  {"messageId": "1", "method": "layoutObjectNodes", "args": [nodes, links, options]}
  {"messageId": "2", "method": "layoutAndRouteLinks", "args": [nodes, links, positions, options]}

Each output line is the response with the same messageId and either
returnData or error. Jobs run one at a time in input order. Flags set the
defaults that request options override.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, closeFn, err := c.newWorker(cmd, &flags, cflags)
			if err != nil {
				return err
			}
			defer closeFn()

			c.Logger.Info("worker ready", "transport", "stdio")
			return worker.ServeStdio(cmd.Context(), w, os.Stdin, c.out)
		},
	}

	flags.register(cmd)
	cflags.register(cmd)
	return cmd
}

// serveCommand creates the HTTP worker command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		flags  layoutFlags
		cflags cacheFlags
		addr   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve layout jobs over HTTP",
		Long: `Serve layout jobs over HTTP.

POST /v1/worker accepts one request in the same format as the worker
command and answers with its response. GET /healthz reports liveness.
Jobs from concurrent clients run one at a time.

Environment:
  ` + envAddr + `          listen address (default :8080)
  ` + envRedisURL + `     redis cache URL
  ` + envCacheDir + `     file cache directory
  ` + envCachePrefix + `  prefix for cache keys shared between deployments`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, closeFn, err := c.newWorker(cmd, &flags, cflags)
			if err != nil {
				return err
			}
			defer closeFn()
			return c.serve(cmd.Context(), addr, worker.NewHTTPHandler(w, c.Logger))
		},
	}

	flags.register(cmd)
	cflags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", envOr(envAddr, ":8080"), "listen address")
	return cmd
}

// newWorker builds a worker with the command's options as defaults.
func (c *CLI) newWorker(cmd *cobra.Command, flags *layoutFlags, cflags cacheFlags) (*worker.Worker, func(), error) {
	opts, err := flags.options(cmd, "", c.Logger)
	if err != nil {
		return nil, nil, err
	}
	runner, err := c.newRunner(cmd.Context(), opts, cflags)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize runner: %w", err)
	}
	closeFn := func() {
		if err := runner.Close(); err != nil {
			c.Logger.Warn("close cache", "err", err)
		}
	}
	return worker.New(runner, opts, c.Logger), closeFn, nil
}

// serve runs an HTTP server until ctx is cancelled, then drains it.
func (c *CLI) serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	c.Logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
