package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/matzehuels/schemalayout/pkg/errors"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"plain", fmt.Errorf("boom"), exitFailure},
		{"cancelled", fmt.Errorf("layout: %w", context.Canceled), exitInterrupted},
		{"invalid schema", errors.New(errors.ErrCodeInvalidSchema, "object %q has no name", "A"), exitInvalid},
		{"wrapped path", fmt.Errorf("parse: %w", errors.New(errors.ErrCodeInvalidPath, "bad path")), exitInvalid},
		{"missing file", errors.New(errors.ErrCodeFileNotFound, "schema file x.yaml"), exitNotFound},
		{"cache backend", errors.New(errors.ErrCodeCacheBackend, "redis down"), exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestExecute(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    int
		message string
	}{
		{"unknown flag", []string{"layout", "--bogus", "x.yaml"}, exitInvalid, "unknown flag: --bogus"},
		{"missing argument", []string{"layout"}, exitFailure, "accepts 1 arg(s), received 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			if got := execute(context.Background(), tt.args, &stderr); got != tt.want {
				t.Errorf("execute(%v) = %d, want %d", tt.args, got, tt.want)
			}
			out := stderr.String()
			if !strings.Contains(out, tt.message) {
				t.Errorf("stderr = %q, want it to mention %q", out, tt.message)
			}
			if n := strings.Count(out, "Error:"); n != 1 {
				t.Errorf("error printed %d times:\n%s", n, out)
			}
		})
	}
}
