package worker

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/matzehuels/schemalayout/pkg/errors"
)

// ServeStdio reads one JSON request per line from r and writes one JSON
// response per line to out, in order, until r is exhausted or ctx is done.
// A malformed line gets an error response without a messageId.
func ServeStdio(ctx context.Context, w *Worker, r io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxRequestBytes)
	enc := json.NewEncoder(out)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}

		var resp Response
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			resp.Error = errorBody(errors.Wrap(errors.ErrCodeInvalidRequest, err, "decode request: %v", err))
		} else {
			resp = w.Handle(ctx, req)
		}
		if err := enc.Encode(resp); err != nil {
			return err
		}
	}
	return sc.Err()
}
