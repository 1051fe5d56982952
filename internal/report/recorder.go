package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	StatusPassed = "passed"
	StatusFailed = "failed"

	// FileName is the checkpoint log written inside the output directory.
	FileName = "checkpoints.jsonl"
)

// Result is one checkpoint outcome.
type Result struct {
	RunID      string    `json:"run_id"`
	Step       int       `json:"step"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Recorder appends checkpoint results as JSON lines.
type Recorder struct {
	path   string
	mu     sync.Mutex
	logger *lumberjack.Logger
}

// NewRecorder opens (or continues) the checkpoint log inside dir.
func NewRecorder(dir string) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("report: mkdir %s: %w", dir, err)
	}
	path := filepath.Join(dir, FileName)
	return &Recorder{
		path: path,
		logger: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   false,
		},
	}, nil
}

// Path returns the checkpoint log location.
func (r *Recorder) Path() string {
	return r.path
}

// Record writes a single result line.
func (r *Recorder) Record(res Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("report: marshal result: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.logger.Write(append(data, '\n')); err != nil {
		slog.Error("Failed to write checkpoint result", "error", err, "step", res.Name)
		return fmt.Errorf("report: write result: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.logger.Close()
}
