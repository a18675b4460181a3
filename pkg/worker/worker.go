package worker

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/schemalayout/pkg/errors"
	"github.com/matzehuels/schemalayout/pkg/graph"
	"github.com/matzehuels/schemalayout/pkg/observability"
	"github.com/matzehuels/schemalayout/pkg/pipeline"
)

// Worker executes layout requests one at a time.
type Worker struct {
	runner   *pipeline.Runner
	defaults pipeline.Options
	logger   *log.Logger

	mu sync.Mutex
}

// New returns a worker backed by runner. Options sent with a request are
// merged over defaults.
func New(runner *pipeline.Runner, defaults pipeline.Options, logger *log.Logger) *Worker {
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, logger)
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Worker{runner: runner, defaults: defaults, logger: logger}
}

// Handle runs req to completion and returns its response. Cancelling ctx
// does not interrupt a job that has started.
func (w *Worker) Handle(ctx context.Context, req Request) Response {
	hooks := observability.Worker()
	hooks.OnRequest(ctx, req.Method, req.MessageID)
	start := time.Now()

	w.mu.Lock()
	data, err := w.dispatch(context.WithoutCancel(ctx), req)
	w.mu.Unlock()

	dur := time.Since(start)
	hooks.OnResponse(ctx, req.Method, req.MessageID, dur, err)

	resp := Response{MessageID: req.MessageID}
	if err != nil {
		w.logger.Warn("request failed", "method", req.Method, "id", req.MessageID, "err", err)
		resp.Error = errorBody(err)
		return resp
	}
	w.logger.Debug("request done", "method", req.Method, "id", req.MessageID, "duration", dur)
	resp.ReturnData = data
	return resp
}

// Serve answers requests from in on out until in is closed or ctx is done.
func (w *Worker) Serve(ctx context.Context, in <-chan Request, out chan<- Response) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req, ok := <-in:
			if !ok {
				return nil
			}
			resp := w.Handle(ctx, req)
			select {
			case out <- resp:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (w *Worker) dispatch(ctx context.Context, req Request) (json.RawMessage, error) {
	var (
		v   any
		err error
	)
	switch req.Method {
	case MethodLayoutObjectNodes:
		v, err = w.layoutObjectNodes(ctx, req.Args)
	case MethodLayoutAndRouteLinks:
		v, err = w.layoutAndRouteLinks(ctx, req.Args)
	default:
		return nil, errors.New(errors.ErrCodeInvalidMethod, "unknown method %q", req.Method)
	}
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode %s result", req.Method)
	}
	return data, nil
}

func (w *Worker) layoutObjectNodes(ctx context.Context, args []json.RawMessage) (any, error) {
	var (
		nodes []graph.Node
		links []graph.Link
		opts  Options
	)
	if err := decodeArgs(MethodLayoutObjectNodes, args, 2, &nodes, &links, &opts); err != nil {
		return nil, err
	}
	g, err := buildGraph(nodes, links)
	if err != nil {
		return nil, err
	}
	positions, _, err := w.runner.PlaceObjects(ctx, g, opts.Previous, w.options(opts))
	return positions, err
}

func (w *Worker) layoutAndRouteLinks(ctx context.Context, args []json.RawMessage) (any, error) {
	var (
		nodes     []graph.Node
		links     []graph.Link
		positions []graph.NodePosition
		opts      Options
	)
	if err := decodeArgs(MethodLayoutAndRouteLinks, args, 3, &nodes, &links, &positions, &opts); err != nil {
		return nil, err
	}
	g, err := buildGraph(nodes, links)
	if err != nil {
		return nil, err
	}
	res, _, err := w.runner.RouteLinks(ctx, g, positions, w.options(opts))
	return res, err
}

// options merges request options over the worker defaults. Cache settings
// always come from the worker.
func (w *Worker) options(req Options) pipeline.Options {
	o := req.Options
	o.Input, o.Format, o.Include = "", "", nil
	o.RedisURL, o.CacheTTL = "", 0
	o.Logger = w.logger
	return w.defaults.Merge(o)
}
