package checkpoint

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"newstrace/internal/types"
)

// Store persists scrape results to a single JSON file. Writes go to a
// temporary file in the same directory, are fsynced, then renamed over the
// target, so readers never observe a torn document.
type Store struct {
	path   string
	logger *slog.Logger
}

// New creates a Store writing to dir/fileName.
func New(dir, fileName string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint dir: %w", err)
	}
	return &Store{
		path:   filepath.Join(dir, fileName),
		logger: logger.With("component", "checkpoint"),
	}, nil
}

// Path returns the checkpoint file path.
func (s *Store) Path() string {
	return s.path
}

// Write atomically replaces the checkpoint with the given result.
func (s *Store) Write(result *types.ScrapeResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp checkpoint: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename checkpoint: %w", err)
	}

	s.logger.Debug("checkpoint written", "path", s.path, "profiles", len(result.Profiles))
	return nil
}

// Load reads the last written checkpoint. A missing file is reported via
// os.IsNotExist on the returned error.
func (s *Store) Load() (*types.ScrapeResult, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var result types.ScrapeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse checkpoint: %w", err)
	}
	return &result, nil
}
