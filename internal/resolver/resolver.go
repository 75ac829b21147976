package resolver

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"

	"newstrace/internal/config"
	"newstrace/internal/types"
)

// Candidate sources.
const (
	SourceHeuristic      = "heuristic"
	SourceSearchFallback = "search-fallback"
)

// Reachability verdicts. A tagged outcome rather than a bool so the
// fail-open/fail-closed policy stays a visible decision point.
const (
	VerdictUnchecked   = "unchecked"
	VerdictReachable   = "reachable"
	VerdictUnreachable = "unreachable"
)

// Candidate is a URL hypothesis for an outlet's official website.
// Transient: discarded after resolution.
type Candidate struct {
	URL     string
	Source  string
	Verdict string
}

// Resolver turns an outlet name into a validated root URL.
type Resolver struct {
	cfg    config.ResolverConfig
	client *http.Client
	logger *slog.Logger
}

// New creates a Resolver. A nil client gets a probe-timeout default.
func New(cfg config.ResolverConfig, client *http.Client, logger *slog.Logger) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: cfg.ProbeTimeout}
	}
	return &Resolver{
		cfg:    cfg,
		client: client,
		logger: logger.With("component", "resolver"),
	}
}

// Resolve returns the outlet's root URL (scheme://host). Heuristic domain
// candidates are probed in ranked order; if none is reachable the resolver
// falls back to a web search. Exhausting the probe budget yields
// ErrDomainNotFound.
func (r *Resolver) Resolve(ctx context.Context, outlet string) (string, error) {
	outlet = strings.TrimSpace(outlet)
	if outlet == "" {
		return "", types.ErrInvalidQuery
	}

	// Accept a pasted URL directly.
	if strings.HasPrefix(outlet, "http://") || strings.HasPrefix(outlet, "https://") {
		if root := r.probe(ctx, outlet); root != "" {
			return root, nil
		}
		return "", &types.ResolveError{Outlet: outlet, Attempts: 1, Err: types.ErrDomainNotFound}
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Budget)
	defer cancel()

	probes := 0
	for _, cand := range r.Candidates(outlet) {
		if probes >= r.cfg.MaxProbes || ctx.Err() != nil {
			break
		}
		probes++
		if root := r.probe(ctx, cand.URL); root != "" {
			r.logger.Info("outlet resolved", "outlet", outlet, "root", root, "source", cand.Source)
			return root, nil
		}
	}

	// Search-engine fallback, validated the same way.
	if ctx.Err() == nil {
		if root := r.searchFallback(ctx, outlet, &probes); root != "" {
			r.logger.Info("outlet resolved", "outlet", outlet, "root", root, "source", SourceSearchFallback)
			return root, nil
		}
	}

	err := error(types.ErrDomainNotFound)
	if ctx.Err() != nil {
		err = fmt.Errorf("%w: %w", types.ErrBudgetExhausted, types.ErrDomainNotFound)
	}
	return "", &types.ResolveError{Outlet: outlet, Attempts: probes, Err: err}
}

// Candidates generates heuristic domain hypotheses in ranked order:
// concatenated then hyphenated token forms, each across the TLD table with
// and without a www. prefix.
func (r *Resolver) Candidates(outlet string) []Candidate {
	cleaned := strings.ToLower(stripNonAlnum(outlet))
	tokens := strings.Fields(cleaned)
	if len(tokens) == 0 {
		return nil
	}

	bases := []string{strings.Join(tokens, "")}
	if len(tokens) > 1 {
		bases = append(bases, strings.Join(tokens, "-"))
	}

	var out []Candidate
	for _, b := range bases {
		for _, tld := range r.cfg.TLDs {
			out = append(out,
				Candidate{URL: "https://www." + b + tld, Source: SourceHeuristic, Verdict: VerdictUnchecked},
				Candidate{URL: "https://" + b + tld, Source: SourceHeuristic, Verdict: VerdictUnchecked},
			)
		}
	}
	return out
}

// probe checks one candidate with a lightweight GET. Reachable means the
// request resolved, returned 2xx/3xx, and served HTML; the returned root is
// scheme://host of the final URL so redirects land on the canonical origin.
func (r *Resolver) probe(ctx context.Context, rawURL string) string {
	pctx, cancel := context.WithTimeout(ctx, r.cfg.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(pctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (NewsTraceBot/1.0)")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Debug("candidate unreachable", "url", rawURL, "error", err)
		return ""
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return ""
	}
	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	if ct != "" && !strings.Contains(ct, "html") {
		return ""
	}

	final := resp.Request.URL
	return final.Scheme + "://" + final.Host
}

// searchFallback queries the configured search engines for
// "<outlet> official website" and validates the first plausible result.
func (r *Resolver) searchFallback(ctx context.Context, outlet string, probes *int) string {
	query := url.QueryEscape(outlet + " official website")

	for _, engine := range r.cfg.SearchEngines {
		if ctx.Err() != nil {
			return ""
		}
		links := r.searchResultLinks(ctx, engine+query)
		for _, link := range links {
			if *probes >= r.cfg.MaxProbes {
				return ""
			}
			*probes++
			if root := r.probe(ctx, link); root != "" {
				return root
			}
		}
		// Small pause between engines, as a courtesy.
		select {
		case <-ctx.Done():
			return ""
		case <-time.After(200 * time.Millisecond):
		}
	}
	return ""
}

// searchResultLinks extracts outbound result links from a search page,
// unwrapping redirect wrappers (DuckDuckGo's uddg= parameter) and skipping
// the engines' own hosts.
func (r *Resolver) searchResultLinks(ctx context.Context, searchURL string) []string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (NewsTraceBot/1.0)")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	doc, err := htmlquery.Parse(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return nil
	}

	var links []string
	seen := make(map[string]struct{})
	for _, a := range htmlquery.Find(doc, "//a[@href]") {
		href := htmlquery.SelectAttr(a, "href")
		link := unwrapResultLink(href)
		if link == "" {
			continue
		}
		u, err := url.Parse(link)
		if err != nil || u.Host == "" {
			continue
		}
		if isSearchEngineHost(u.Host) {
			continue
		}
		root := u.Scheme + "://" + u.Host
		if _, ok := seen[root]; ok {
			continue
		}
		seen[root] = struct{}{}
		links = append(links, root)
	}
	return links
}

// unwrapResultLink resolves redirect-wrapped hrefs to the target URL.
func unwrapResultLink(href string) string {
	if href == "" {
		return ""
	}
	if strings.Contains(href, "uddg=") || strings.Contains(href, "/l/?") {
		u, err := url.Parse(href)
		if err != nil {
			return ""
		}
		if target := u.Query().Get("uddg"); target != "" && strings.HasPrefix(target, "http") {
			return target
		}
		return ""
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	return ""
}

func isSearchEngineHost(host string) bool {
	host = strings.ToLower(host)
	for _, engine := range []string{"duckduckgo.com", "bing.com", "google.com"} {
		if host == engine || strings.HasSuffix(host, "."+engine) {
			return true
		}
	}
	return false
}

func stripNonAlnum(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return b.String()
}
