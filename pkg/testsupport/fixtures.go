package testsupport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/crosspost-dev/go-crosspost/pkg/model"
	"github.com/crosspost-dev/go-crosspost/pkg/tagconv"
)

// LoadResults reads a JSON golden of resolved results, returning an error
// for callers managing setup outside of *testing.T.
func LoadResults(path string) ([]model.Result, error) {
	if path == "" {
		return nil, errors.New("testsupport: results path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: read results: %w", err)
	}
	var out []model.Result
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("testsupport: unmarshal results: %w", err)
	}
	return out, nil
}

// MustLoadResults loads a JSON golden of resolved results.
func MustLoadResults(t *testing.T, path string) []model.Result {
	t.Helper()

	results, err := LoadResults(path)
	if err != nil {
		t.Fatalf("load results: %v", err)
	}
	return results
}

// MustLoadConverters reads a YAML list of converter entries into an
// in-memory source.
func MustLoadConverters(t *testing.T, path string) *tagconv.MemorySource {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read converters: %v", err)
	}
	var entries []tagconv.Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		t.Fatalf("unmarshal converters: %v", err)
	}
	return tagconv.NewMemorySource(entries...)
}

// UpdatingGoldens reports whether UPDATE_GOLDENS is set.
func UpdatingGoldens() bool {
	return os.Getenv("UPDATE_GOLDENS") != ""
}

// WriteGolden writes arbitrary data to a golden file when UPDATE_GOLDENS is set.
func WriteGolden(t *testing.T, path string, value any) {
	t.Helper()

	if !UpdatingGoldens() {
		return
	}
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}

	return out, buf.String()
}
