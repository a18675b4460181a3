package worker

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/matzehuels/schemalayout/pkg/errors"
	"github.com/matzehuels/schemalayout/pkg/graph"
	"github.com/matzehuels/schemalayout/pkg/pipeline"
)

// Protocol methods.
const (
	MethodLayoutObjectNodes   = "layoutObjectNodes"
	MethodLayoutAndRouteLinks = "layoutAndRouteLinks"
)

// MaxRequestBytes bounds one encoded request on the stdio and HTTP transports.
const MaxRequestBytes = 32 << 20

// Request is one job for the worker.
type Request struct {
	MessageID string            `json:"messageId"`
	Method    string            `json:"method"`
	Args      []json.RawMessage `json:"args"`
}

// Response answers the request with the same MessageID.
type Response struct {
	MessageID  string          `json:"messageId"`
	ReturnData json.RawMessage `json:"returnData,omitempty"`
	Error      *ErrorBody      `json:"error,omitempty"`
}

// ErrorBody is the wire form of a failed job.
type ErrorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// Err converts the body back to a coded error.
func (b *ErrorBody) Err() error {
	return errors.New(b.Code, "%s", b.Message)
}

// Options is the optional trailing argument of both methods. Previous holds
// earlier object positions, which placement keeps.
type Options struct {
	pipeline.Options
	Previous []graph.NodePosition `json:"previous,omitempty"`
}

// NewRequest encodes args and assigns a fresh correlation id.
func NewRequest(method string, args ...any) (Request, error) {
	req := Request{
		MessageID: uuid.NewString(),
		Method:    method,
		Args:      make([]json.RawMessage, len(args)),
	}
	for i, a := range args {
		data, err := json.Marshal(a)
		if err != nil {
			return Request{}, fmt.Errorf("encode argument %d of %s: %w", i, method, err)
		}
		req.Args[i] = data
	}
	return req, nil
}

// result returns the payload or the decoded error.
func (r Response) result() (json.RawMessage, error) {
	if r.Error != nil {
		return nil, r.Error.Err()
	}
	return r.ReturnData, nil
}

func errorBody(err error) *ErrorBody {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	return &ErrorBody{Code: code, Message: errors.UserMessage(err)}
}

// decodeArgs fills dst from the positional arguments. The first required
// arguments must be present; the rest are optional. JSON null leaves the
// destination untouched.
func decodeArgs(method string, args []json.RawMessage, required int, dst ...any) error {
	if len(args) < required || len(args) > len(dst) {
		return errors.New(errors.ErrCodeInvalidRequest, "%s takes %d to %d arguments, got %d", method, required, len(dst), len(args))
	}
	for i, raw := range args {
		if err := json.Unmarshal(raw, dst[i]); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidRequest, err, "%s argument %d", method, i)
		}
	}
	return nil
}

// buildGraph assembles the nodes and links of a request.
func buildGraph(nodes []graph.Node, links []graph.Link) (*graph.Graph, error) {
	g, err := graph.FromDocument(graph.Document{Nodes: nodes, Links: links})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "build graph")
	}
	return g, nil
}
