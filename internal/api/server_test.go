package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newstrace/internal/checkpoint"
	"newstrace/internal/config"
	"newstrace/internal/engine"
	"newstrace/internal/extract"
	"newstrace/internal/fetcher"
	"newstrace/internal/resolver"
	"newstrace/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func newsSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><a href="/staff">staff</a></body></html>`)
	})
	mux.HandleFunc("/staff", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><a href="/news/one">one</a><a href="/news/two">two</a></body></html>`)
	})
	article := func(author, title, section string) string {
		return fmt.Sprintf(`<html><head>
			<meta name="author" content="%s">
			<meta property="og:title" content="%s">
			<meta property="article:section" content="%s">
			<time datetime="2024-05-17"></time>
		</head><body></body></html>`, author, title, section)
	}
	mux.HandleFunc("/news/one", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, article("Jane Doe", "Summit ends", "World"))
	})
	mux.HandleFunc("/news/two", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, article("John Smith", "Cup final", "Sport"))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Engine.Concurrency = 4
	cfg.Engine.RequestTimeout = 2 * time.Second
	cfg.Engine.JobBudget = 10 * time.Second
	cfg.Engine.PolitenessDelay = 0
	cfg.Engine.MaxRetries = 0
	cfg.Engine.MinProfiles = 0
	cfg.Engine.SeedPaths = []string{"/staff"}
	cfg.Engine.RespectRobotsTxt = false
	cfg.Checkpoint.Dir = t.TempDir()
	cfg.API.RequestTimeout = 15 * time.Second

	f, err := fetcher.NewHTTPFetcher(cfg, testLogger)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	store, err := checkpoint.New(cfg.Checkpoint.Dir, cfg.Checkpoint.FileName, testLogger)
	require.NoError(t, err)

	eng := engine.New(cfg, testLogger)
	eng.SetResolver(resolver.New(cfg.Resolver, nil, testLogger))
	eng.SetFetcher(f)
	eng.SetExtractor(extract.New(testLogger))
	eng.SetCheckpoint(store)

	return NewServer(cfg.API, eng, testLogger)
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestScrapeEndpoint(t *testing.T) {
	site := newsSite(t)
	server := newTestServer(t)

	rec := doJSON(t, server.Handler(), http.MethodPost, "/api/scrape",
		fmt.Sprintf(`{"outlet": %q}`, site.URL))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result types.ScrapeResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	assert.Equal(t, types.ReasonOK, result.Reason)
	require.Len(t, result.Profiles, 2)
	names := []string{result.Profiles[0].Name, result.Profiles[1].Name}
	assert.Contains(t, names, "Jane Doe")
	assert.Contains(t, names, "John Smith")
}

func TestScrapeEndpointInvalidQuery(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server.Handler(), http.MethodPost, "/api/scrape", `{"outlet": "  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var result types.ScrapeResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, types.ReasonInvalidQuery, result.Reason)
	assert.Empty(t, result.Profiles)
}

func TestScrapeEndpointBadJSON(t *testing.T) {
	server := newTestServer(t)
	rec := doJSON(t, server.Handler(), http.MethodPost, "/api/scrape", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGraphEndpointAfterScrape(t *testing.T) {
	site := newsSite(t)
	server := newTestServer(t)

	// Empty before any job.
	rec := doJSON(t, server.Handler(), http.MethodGet, "/api/graph", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var empty types.NetworkGraph
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &empty))
	assert.Empty(t, empty.Nodes)

	doJSON(t, server.Handler(), http.MethodPost, "/api/scrape",
		fmt.Sprintf(`{"outlet": %q}`, site.URL))

	rec = doJSON(t, server.Handler(), http.MethodGet, "/api/graph", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var g types.NetworkGraph
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &g))
	// 2 journalists + 2 beats, one edge each.
	assert.Len(t, g.Nodes, 4)
	assert.Len(t, g.Edges, 2)
}

func TestJobsEndpoints(t *testing.T) {
	site := newsSite(t)
	server := newTestServer(t)

	doJSON(t, server.Handler(), http.MethodPost, "/api/scrape",
		fmt.Sprintf(`{"outlet": %q}`, site.URL))

	rec := doJSON(t, server.Handler(), http.MethodGet, "/api/jobs", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var jobs []Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, "done", jobs[0].Status)
	assert.Equal(t, 2, jobs[0].Profiles)
	require.NotNil(t, jobs[0].FinishedAt)

	rec = doJSON(t, server.Handler(), http.MethodGet, "/api/jobs/"+jobs[0].ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, server.Handler(), http.MethodGet, "/api/jobs/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t)
	rec := doJSON(t, server.Handler(), http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}
