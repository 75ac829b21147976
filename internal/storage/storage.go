package storage

import (
	"context"

	"newstrace/internal/types"
)

// Archive persists completed scrape jobs.
type Archive interface {
	// SaveResult persists one finished job: the aggregated result and its
	// derived journalist-beat graph.
	SaveResult(ctx context.Context, jobID string, result *types.ScrapeResult, graph *types.NetworkGraph) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the archive backend identifier.
	Name() string
}

// MultiArchive fans a job out to several backends. The first error is
// returned after every backend has been attempted.
type MultiArchive struct {
	backends []Archive
}

// NewMultiArchive creates an archive writing to all the given backends.
func NewMultiArchive(backends ...Archive) *MultiArchive {
	return &MultiArchive{backends: backends}
}

func (m *MultiArchive) Name() string { return "multi" }

func (m *MultiArchive) SaveResult(ctx context.Context, jobID string, result *types.ScrapeResult, graph *types.NetworkGraph) error {
	var firstErr error
	for _, b := range m.backends {
		if err := b.SaveResult(ctx, jobID, result, graph); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *MultiArchive) Close() error {
	var firstErr error
	for _, b := range m.backends {
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
