package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultLogFile is the capture log path used when none is configured.
const DefaultLogFile = "scam_log.jsonl"

// Log appends events to a JSONL file. The file is opened per write so
// external rotation is picked up.
type Log struct {
	path string
	mu   sync.Mutex
}

func NewLog(path string) *Log {
	if path == "" {
		path = DefaultLogFile
	}
	return &Log{path: path}
}

func (l *Log) Path() string {
	return l.path
}

func (l *Log) Capture(_ context.Context, ev Event) error {
	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal capture event: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create capture log dir: %w", err)
		}
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open capture log: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return fmt.Errorf("append capture log: %w", err)
	}
	return f.Close()
}
