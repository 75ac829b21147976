package types

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure modes.
var (
	ErrInvalidQuery    = errors.New("outlet name is empty or malformed")
	ErrDomainNotFound  = errors.New("no reachable domain candidate for outlet")
	ErrDuplicate       = errors.New("duplicate URL")
	ErrMaxDepth        = errors.New("max depth exceeded")
	ErrBlocked         = errors.New("blocked by robots.txt")
	ErrOffDomain       = errors.New("URL outside the outlet's registrable domain")
	ErrInvalidURL      = errors.New("invalid URL")
	ErrFrontierClosed  = errors.New("frontier has been closed")
	ErrBudgetExhausted = errors.New("resolution budget exhausted")
)

// Reason codes attached to every ScrapeResult. A job always terminates with
// one of these; per-page errors degrade coverage instead of surfacing here.
const (
	ReasonOK             = "ok"
	ReasonDomainNotFound = "domain_not_found"
	ReasonTimedOut       = "timed_out"
	ReasonInvalidQuery   = "invalid_query"
)

// FetchError wraps errors that occur while fetching a single page.
// Retryable errors (timeouts, resets, 5xx, 429) trigger bounded retry;
// everything else marks the task failed and the crawl moves on.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
	Retryable  bool
	RetryAfter time.Duration // populated from Retry-After header on HTTP 429
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) IsRetryable() bool { return e.Retryable }

// ResolveError reports why domain resolution gave up.
type ResolveError struct {
	Outlet   string
	Attempts int
	Err      error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("resolve %q: %v after %d probes", e.Outlet, e.Err, e.Attempts)
}

func (e *ResolveError) Unwrap() error { return e.Err }
