package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/schemalayout/pkg/errors"
)

// WorkerPath is the endpoint that accepts protocol requests.
const WorkerPath = "/v1/worker"

// NewHTTPHandler serves the protocol on POST /v1/worker and a liveness probe
// on GET /healthz. Requests without a messageId are assigned one.
func NewHTTPHandler(w *Worker, logger *log.Logger) http.Handler {
	if logger == nil {
		logger = w.logger
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		writeJSON(rw, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post(WorkerPath, func(rw http.ResponseWriter, req *http.Request) {
		req.Body = http.MaxBytesReader(rw, req.Body, MaxRequestBytes)
		var in Request
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			body := errorBody(errors.Wrap(errors.ErrCodeInvalidRequest, err, "decode request: %v", err))
			writeJSON(rw, http.StatusBadRequest, Response{Error: body})
			return
		}
		if in.MessageID == "" {
			in.MessageID = uuid.NewString()
		}
		resp := w.Handle(req.Context(), in)
		writeJSON(rw, statusFor(resp.Error), resp)
	})
	return r
}

// statusFor maps error codes to HTTP statuses.
func statusFor(body *ErrorBody) int {
	if body == nil {
		return http.StatusOK
	}
	switch body.Code {
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeCacheBackend:
		return http.StatusServiceUnavailable
	case errors.ErrCodeInternal:
		return http.StatusInternalServerError
	}
	if strings.HasPrefix(string(body.Code), "INVALID_") || body.Code == errors.ErrCodeUnsupported {
		return http.StatusBadRequest
	}
	return http.StatusUnprocessableEntity
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
			ww := middleware.NewWrapResponseWriter(rw, req.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, req)
			logger.Debug("http request",
				"method", req.Method,
				"path", req.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(req.Context()))
		})
	}
}

// HTTPClient calls a worker served by [NewHTTPHandler].
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient returns a client for the server at baseURL. A zero timeout
// leaves requests bounded only by their context.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Call implements [Caller].
func (c *HTTPClient) Call(ctx context.Context, method string, args ...any) (json.RawMessage, error) {
	req, err := NewRequest(method, args...)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+WorkerPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", method, err)
	}
	defer httpResp.Body.Close()

	var resp Response
	if err := json.NewDecoder(io.LimitReader(httpResp.Body, MaxRequestBytes)).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", httpResp.StatusCode, err)
	}
	if resp.Error == nil && resp.MessageID != req.MessageID {
		return nil, errors.New(errors.ErrCodeInternal, "response id %q does not match request %q", resp.MessageID, req.MessageID)
	}
	return resp.result()
}
