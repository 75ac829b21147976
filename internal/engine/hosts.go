package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// HostGovernor bounds pressure on a single host: a small per-host cap on
// concurrent in-flight requests, plus a politeness rate limiter. Slots are
// acquired before dispatch and released on fetch completion, independently
// of the total worker count.
type HostGovernor struct {
	limit int64
	delay time.Duration

	mu       sync.Mutex
	sems     map[string]*semaphore.Weighted
	limiters map[string]*rate.Limiter
}

// NewHostGovernor creates a governor with the given per-host in-flight
// limit and minimum delay between requests to the same host.
func NewHostGovernor(perHostLimit int, delay time.Duration) *HostGovernor {
	if perHostLimit < 1 {
		perHostLimit = 1
	}
	return &HostGovernor{
		limit:    int64(perHostLimit),
		delay:    delay,
		sems:     make(map[string]*semaphore.Weighted),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Acquire blocks until a slot for the host is free and the politeness
// limiter admits another request, or the context is done.
func (h *HostGovernor) Acquire(ctx context.Context, host string) error {
	sem, lim := h.forHost(host)

	if err := sem.Acquire(ctx, 1); err != nil {
		return err
	}
	if lim != nil {
		if err := lim.Wait(ctx); err != nil {
			sem.Release(1)
			return err
		}
	}
	return nil
}

// Release frees a slot for the host.
func (h *HostGovernor) Release(host string) {
	h.mu.Lock()
	sem := h.sems[strings.ToLower(host)]
	h.mu.Unlock()
	if sem != nil {
		sem.Release(1)
	}
}

func (h *HostGovernor) forHost(host string) (*semaphore.Weighted, *rate.Limiter) {
	host = strings.ToLower(host)

	h.mu.Lock()
	defer h.mu.Unlock()

	sem, ok := h.sems[host]
	if !ok {
		sem = semaphore.NewWeighted(h.limit)
		h.sems[host] = sem
	}

	if h.delay <= 0 {
		return sem, nil
	}
	lim, ok := h.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Every(h.delay), 1)
		h.limiters[host] = lim
	}
	return sem, lim
}
