package robots

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// UserAgent is the agent name matched against robots.txt groups.
const UserAgent = "NewsTraceBot"

// Gate answers allow/deny per URL from each host's robots.txt. Rules are
// fetched at most once per host and cached for the job's lifetime. Fetch or
// parse failures default to allow: the target's own convention takes
// priority over paranoia, but an explicit Disallow matching the path wins.
type Gate struct {
	client  *http.Client
	enabled bool
	logger  *slog.Logger

	mu    sync.RWMutex
	cache map[string]*robotstxt.RobotsData // keyed by scheme://host; nil = fail-open
}

// NewGate creates a robots gate. A nil client gets a short-timeout default.
func NewGate(enabled bool, client *http.Client, logger *slog.Logger) *Gate {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &Gate{
		client:  client,
		enabled: enabled,
		logger:  logger.With("component", "robots"),
		cache:   make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether the URL may be fetched.
func (g *Gate) Allowed(ctx context.Context, rawURL string) bool {
	if !g.enabled {
		return true
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}

	data := g.rulesFor(ctx, u.Scheme+"://"+u.Host)
	if data == nil {
		return true
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return data.TestAgent(path, UserAgent)
}

// Sitemaps returns the sitemap URLs listed in a host's robots.txt, if any.
func (g *Gate) Sitemaps(ctx context.Context, root string) []string {
	u, err := url.Parse(root)
	if err != nil || u.Host == "" {
		return nil
	}
	data := g.rulesFor(ctx, u.Scheme+"://"+u.Host)
	if data == nil {
		return nil
	}
	return data.Sitemaps
}

// rulesFor returns cached rules for an origin, fetching on first use.
// A nil return means "no usable rules" and callers must fail open.
func (g *Gate) rulesFor(ctx context.Context, origin string) *robotstxt.RobotsData {
	g.mu.RLock()
	data, ok := g.cache[origin]
	g.mu.RUnlock()
	if ok {
		return data
	}

	data = g.fetch(ctx, origin)

	g.mu.Lock()
	g.cache[origin] = data
	g.mu.Unlock()
	return data
}

func (g *Gate) fetch(ctx context.Context, origin string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", UserAgent+"/1.0")

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Debug("robots.txt unreachable, failing open", "origin", origin, "error", err)
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		g.logger.Debug("robots.txt unparseable, failing open", "origin", origin, "error", err)
		return nil
	}
	return data
}
