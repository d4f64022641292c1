package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// Recorder collects JSON log lines emitted during a test.
type Recorder struct {
	mu  sync.Mutex
	out bytes.Buffer
}

func (r *Recorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.out.Write(p)
}

// String returns everything written so far.
func (r *Recorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.out.String()
}

// Records decodes every line written so far. Lines that are not JSON fail
// the test.
func (r *Recorder) Records(t *testing.T) []map[string]any {
	t.Helper()
	raw := r.String()

	var records []map[string]any
	for _, line := range strings.Split(raw, "\n") {
		if line == "" {
			continue
		}
		rec := map[string]any{}
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("log line is not JSON: %q: %v", line, err)
		}
		records = append(records, rec)
	}
	return records
}

// Messages returns the msg field of every record at the given level.
func (r *Recorder) Messages(t *testing.T, level slog.Level) []string {
	t.Helper()
	var msgs []string
	for _, rec := range r.Records(t) {
		if rec[slog.LevelKey] == level.String() {
			msgs = append(msgs, rec[slog.MessageKey].(string))
		}
	}
	return msgs
}

// NewRecordingLogger returns a debug-level JSON logger backed by a Recorder.
func NewRecordingLogger() (*slog.Logger, *Recorder) {
	rec := &Recorder{}
	return slog.New(slog.NewJSONHandler(rec, &slog.HandlerOptions{Level: slog.LevelDebug})), rec
}

// NewDiscardLogger returns a logger that drops everything.
func NewDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
