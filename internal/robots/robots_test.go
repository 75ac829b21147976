package robots

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const robotsBody = `User-agent: *
Disallow: /private/
Disallow: /drafts

User-agent: NewsTraceBot
Disallow: /no-bots/

Sitemap: https://example.com/sitemap.xml
`

func robotsServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestAllowedRespectsDisallow(t *testing.T) {
	ts := robotsServer(t, robotsBody, http.StatusOK)
	g := NewGate(true, nil, testLogger)
	ctx := context.Background()

	tests := []struct {
		path string
		want bool
	}{
		{"/", true},
		{"/news/story", true},
		{"/no-bots/page", false}, // our agent's own group
		{"/private/x", true},     // wildcard group does not apply once our group matches
	}
	for _, tt := range tests {
		if got := g.Allowed(ctx, ts.URL+tt.path); got != tt.want {
			t.Errorf("Allowed(%s) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestAllowedWildcardGroupWhenUnnamed(t *testing.T) {
	ts := robotsServer(t, "User-agent: *\nDisallow: /private/\n", http.StatusOK)
	g := NewGate(true, nil, testLogger)
	ctx := context.Background()

	if g.Allowed(ctx, ts.URL+"/private/x") {
		t.Error("wildcard Disallow not honored")
	}
	if !g.Allowed(ctx, ts.URL+"/public") {
		t.Error("allowed path denied")
	}
}

func TestAllowedFailsOpenOnFetchError(t *testing.T) {
	g := NewGate(true, nil, testLogger)
	if !g.Allowed(context.Background(), "http://127.0.0.1:1/page") {
		t.Error("unreachable robots.txt must fail open")
	}
}

func TestAllowedFailsOpenWhenMissing(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer ts.Close()

	g := NewGate(true, nil, testLogger)
	if !g.Allowed(context.Background(), ts.URL+"/anything") {
		t.Error("404 robots.txt must mean allow-all")
	}
}

func TestAllowedDisabledGate(t *testing.T) {
	g := NewGate(false, nil, testLogger)
	if !g.Allowed(context.Background(), "http://127.0.0.1:1/whatever") {
		t.Error("disabled gate must always allow")
	}
}

func TestRulesCachedPerOrigin(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, "User-agent: *\nDisallow:\n")
	}))
	defer ts.Close()

	g := NewGate(true, nil, testLogger)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		g.Allowed(ctx, fmt.Sprintf("%s/page-%d", ts.URL, i))
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("robots.txt fetched %d times, want 1", n)
	}
}

func TestSitemaps(t *testing.T) {
	ts := robotsServer(t, robotsBody, http.StatusOK)
	g := NewGate(true, nil, testLogger)

	maps := g.Sitemaps(context.Background(), ts.URL)
	if len(maps) != 1 || maps[0] != "https://example.com/sitemap.xml" {
		t.Errorf("Sitemaps = %v", maps)
	}
}
