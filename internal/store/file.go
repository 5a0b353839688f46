package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MikeSquared-Agency/lure/internal/affinity"
)

const DefaultScoreFile = "rl_weights.json"

// FileStore keeps the table as a single JSON object on disk, rewritten
// wholesale on every save.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultScoreFile
	}
	return &FileStore{path: expandHome(path)}
}

func (s *FileStore) Path() string {
	return s.path
}

// Load reads the score file. A missing or empty file yields the built-in
// defaults; an undecodable one yields ErrCorrupt.
func (s *FileStore) Load(_ context.Context) (affinity.Table, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return affinity.Defaults(), nil
		}
		return nil, fmt.Errorf("read scores: %w", err)
	}

	var t affinity.Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}
	if len(t) == 0 {
		return affinity.Defaults(), nil
	}
	return t, nil
}

// Save replaces the score file atomically: the table is written to a
// temporary file in the same directory and renamed over the old one.
func (s *FileStore) Save(_ context.Context, table affinity.Table) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace scores: %w", err)
	}
	return nil
}

func expandHome(path string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
