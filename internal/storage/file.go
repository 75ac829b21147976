package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"newstrace/internal/types"
)

// FileArchive exports finished jobs to a directory: the full result as
// data.json, the derived graph as graph.json, and the profile table as
// profiles.csv. JSON files are written temp-then-rename so a crashed
// export never leaves a torn document behind.
type FileArchive struct {
	dir    string
	logger *slog.Logger
}

// NewFileArchive creates a FileArchive rooted at dir.
func NewFileArchive(dir string, logger *slog.Logger) (*FileArchive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &FileArchive{
		dir:    dir,
		logger: logger.With("component", "file_archive"),
	}, nil
}

func (a *FileArchive) Name() string { return "file" }

func (a *FileArchive) SaveResult(_ context.Context, jobID string, result *types.ScrapeResult, graph *types.NetworkGraph) error {
	if err := a.writeJSON("data.json", result); err != nil {
		return err
	}
	if graph != nil {
		if err := a.writeJSON("graph.json", graph); err != nil {
			return err
		}
	}
	if err := a.writeCSV("profiles.csv", result.Profiles); err != nil {
		return err
	}

	a.logger.Info("result exported",
		"job_id", jobID,
		"dir", a.dir,
		"profiles", len(result.Profiles),
	)
	return nil
}

func (a *FileArchive) Close() error { return nil }

func (a *FileArchive) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	path := filepath.Join(a.dir, name)
	tmp, err := os.CreateTemp(a.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

func (a *FileArchive) writeCSV(name string, profiles []types.JournalistProfile) error {
	f, err := os.Create(filepath.Join(a.dir, name))
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"name", "beat", "latest_article", "article_url", "publication_date", "articles_count"}); err != nil {
		return fmt.Errorf("write %s header: %w", name, err)
	}
	for _, p := range profiles {
		row := []string{p.Name, p.Beat, p.LatestArticle, p.ArticleURL, p.PublicationDate, strconv.Itoa(p.ArticlesCount)}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write %s row: %w", name, err)
		}
	}
	w.Flush()
	return w.Error()
}
