package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/matzehuels/schemalayout/pkg/errors"
	"github.com/matzehuels/schemalayout/pkg/graph"
	"github.com/matzehuels/schemalayout/pkg/layout"
)

// ErrClosed is returned by [Client.Call] once the response stream has ended.
var ErrClosed = errors.New(errors.ErrCodeInternal, "worker closed")

// Caller sends one request and waits for its response.
type Caller interface {
	Call(ctx context.Context, method string, args ...any) (json.RawMessage, error)
}

// Client matches responses to outstanding calls by correlation id, so calls
// from several goroutines can share one worker connection.
type Client struct {
	requests chan<- Request
	done     chan struct{}

	mu      sync.Mutex
	pending map[string]chan Response
	closed  bool
}

// NewClient starts a client that writes to requests and reads responses
// until that channel is closed.
func NewClient(requests chan<- Request, responses <-chan Response) *Client {
	c := &Client{
		requests: requests,
		done:     make(chan struct{}),
		pending:  make(map[string]chan Response),
	}
	go c.dispatch(responses)
	return c
}

// Start runs w in a goroutine and returns a client connected to it. The
// returned stop function shuts the worker down.
func Start(ctx context.Context, w *Worker) (*Client, func()) {
	ctx, cancel := context.WithCancel(ctx)
	requests := make(chan Request)
	responses := make(chan Response)
	go func() {
		_ = w.Serve(ctx, requests, responses)
		close(responses)
	}()
	return NewClient(requests, responses), cancel
}

// Call implements [Caller].
func (c *Client) Call(ctx context.Context, method string, args ...any) (json.RawMessage, error) {
	req, err := NewRequest(method, args...)
	if err != nil {
		return nil, err
	}
	ch := make(chan Response, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.pending[req.MessageID] = ch
	c.mu.Unlock()

	select {
	case c.requests <- req:
	case <-c.done:
		return nil, ErrClosed
	case <-ctx.Done():
		c.forget(req.MessageID)
		return nil, ctx.Err()
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, ErrClosed
		}
		return resp.result()
	case <-ctx.Done():
		c.forget(req.MessageID)
		return nil, ctx.Err()
	}
}

func (c *Client) dispatch(responses <-chan Response) {
	for resp := range responses {
		c.mu.Lock()
		ch, ok := c.pending[resp.MessageID]
		delete(c.pending, resp.MessageID)
		c.mu.Unlock()
		if ok {
			ch <- resp
		}
	}

	c.mu.Lock()
	c.closed = true
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.mu.Unlock()
	close(c.done)
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// LayoutObjectNodes places the object nodes of g through c.
func LayoutObjectNodes(ctx context.Context, c Caller, g *graph.Graph, opts Options) ([]graph.NodePosition, error) {
	doc := graph.ToDocument(g, nil)
	data, err := c.Call(ctx, MethodLayoutObjectNodes, doc.Nodes, doc.Links, opts)
	if err != nil {
		return nil, err
	}
	var positions []graph.NodePosition
	if err := json.Unmarshal(data, &positions); err != nil {
		return nil, fmt.Errorf("decode %s result: %w", MethodLayoutObjectNodes, err)
	}
	return positions, nil
}

// LayoutAndRouteLinks routes the links of g around positions through c.
func LayoutAndRouteLinks(ctx context.Context, c Caller, g *graph.Graph, positions []graph.NodePosition, opts Options) (layout.Result, error) {
	doc := graph.ToDocument(g, nil)
	data, err := c.Call(ctx, MethodLayoutAndRouteLinks, doc.Nodes, doc.Links, positions, opts)
	if err != nil {
		return layout.Result{}, err
	}
	var res layout.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return layout.Result{}, fmt.Errorf("decode %s result: %w", MethodLayoutAndRouteLinks, err)
	}
	return res, nil
}

var (
	_ Caller = (*Client)(nil)
	_ Caller = (*HTTPClient)(nil)
)
