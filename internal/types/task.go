package types

import (
	"fmt"
	"net/url"
	"time"
)

// Priority levels for task scheduling. Lower value = dispatched sooner.
const (
	PrioritySeed    = 0
	PriorityListing = 1
	PriorityArticle = 2
	PriorityRetry   = 3
)

// Task tags classify what kind of page a task is expected to land on.
const (
	TagSeed    = "seed"
	TagListing = "listing"
	TagArticle = "article"
)

// CrawlTask is a single URL awaiting a crawl decision. Its identity is the
// normalized URL; a given normalized URL is fetched at most once per job.
type CrawlTask struct {
	// URL is the target to fetch.
	URL *url.URL

	// Depth is the number of hops from a seed page.
	Depth int

	// Priority controls scheduling order (lower = sooner).
	Priority int

	// Tag categorizes the task: seed, listing, or article.
	Tag string

	// ParentURL is the page this URL was discovered on.
	ParentURL string

	// RetryCount tracks retry attempts for transient fetch failures.
	RetryCount int

	// CreatedAt is when this task was created.
	CreatedAt time.Time
}

// NewCrawlTask creates a task with article priority and sane defaults.
func NewCrawlTask(rawURL string) (*CrawlTask, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q: %w", u.Scheme, ErrInvalidURL)
	}

	return &CrawlTask{
		URL:       u,
		Priority:  PriorityArticle,
		Tag:       TagArticle,
		CreatedAt: time.Now(),
	}, nil
}

// URLString returns the string form of the task URL.
func (t *CrawlTask) URLString() string {
	if t.URL == nil {
		return ""
	}
	return t.URL.String()
}

// Host returns the hostname of the task URL.
func (t *CrawlTask) Host() string {
	if t.URL == nil {
		return ""
	}
	return t.URL.Hostname()
}
