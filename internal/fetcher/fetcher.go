package fetcher

import (
	"context"
	"fmt"
	"log/slog"

	"newstrace/internal/config"
	"newstrace/internal/types"
)

// Fetcher retrieves one page per crawl task.
type Fetcher interface {
	// Fetch retrieves the content at the task's URL. Transient failures
	// are retried internally; a returned error is terminal for this call.
	Fetch(ctx context.Context, task *types.CrawlTask) (*types.PageResult, error)

	// Close releases any resources held by the fetcher.
	Close() error

	// Type returns the fetcher type identifier.
	Type() string
}

// New creates the fetcher named by cfg.Fetcher.Type.
func New(cfg *config.Config, logger *slog.Logger) (Fetcher, error) {
	switch cfg.Fetcher.Type {
	case "", "http":
		return NewHTTPFetcher(cfg, logger)
	case "browser":
		return NewBrowserFetcher(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown fetcher type %q", cfg.Fetcher.Type)
	}
}
