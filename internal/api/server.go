package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"newstrace/internal/config"
	"newstrace/internal/engine"
	"newstrace/internal/graph"
	"newstrace/internal/observability"
	"newstrace/internal/storage"
	"newstrace/internal/types"
)

// Server exposes the scrape pipeline over HTTP. POST /api/scrape runs a
// job synchronously and returns the aggregated result; the most recent
// result also backs GET /api/graph.
type Server struct {
	mux     *http.ServeMux
	srv     *http.Server
	port    int
	timeout time.Duration
	logger  *slog.Logger

	engine  *engine.Engine
	archive storage.Archive
	metrics *observability.Metrics

	jobsMu sync.RWMutex
	jobs   map[string]*Job

	lastMu     sync.RWMutex
	lastResult *types.ScrapeResult
	lastGraph  *types.NetworkGraph
}

// Job is the API's view of one scrape run.
type Job struct {
	ID         string     `json:"id"`
	Outlet     string     `json:"outlet"`
	Status     string     `json:"status"`
	Reason     string     `json:"reason,omitempty"`
	Profiles   int        `json:"profiles"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// NewServer creates an API server around the given engine.
func NewServer(cfg config.APIConfig, eng *engine.Engine, logger *slog.Logger) *Server {
	s := &Server{
		mux:     http.NewServeMux(),
		port:    cfg.Port,
		timeout: cfg.RequestTimeout,
		logger:  logger.With("component", "api_server"),
		engine:  eng,
		jobs:    make(map[string]*Job),
	}
	s.registerRoutes()
	return s
}

// SetArchive sets an optional archive for completed jobs.
func (s *Server) SetArchive(a storage.Archive) { s.archive = a }

// SetMetrics sets an optional metrics recorder.
func (s *Server) SetMetrics(m *observability.Metrics) { s.metrics = m }

// Start begins serving in a background goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.port)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("API server starting", "addr", addr)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("API server error", "error", err)
		}
	}()
}

// Shutdown stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// Handler returns the route mux, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/scrape", s.handleScrape)
	s.mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	s.mux.HandleFunc("GET /api/jobs/{id}", s.handleGetJob)
	s.mux.HandleFunc("GET /api/graph", s.handleGraph)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Outlet string `json:"outlet"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.jsonResponse(w, http.StatusBadRequest, map[string]string{
			"error":  "invalid JSON",
			"reason": types.ReasonInvalidQuery,
		})
		return
	}
	outlet := strings.TrimSpace(body.Outlet)
	if outlet == "" {
		s.jsonResponse(w, http.StatusBadRequest, &types.ScrapeResult{
			OutletName: outlet,
			Profiles:   []types.JournalistProfile{},
			Reason:     types.ReasonInvalidQuery,
		})
		return
	}

	job := &Job{
		ID:        uuid.NewString(),
		Outlet:    outlet,
		Status:    "running",
		StartedAt: time.Now(),
	}
	s.jobsMu.Lock()
	s.jobs[job.ID] = job
	s.jobsMu.Unlock()

	s.logger.Info("scrape requested", "job_id", job.ID, "outlet", outlet)

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	start := time.Now()
	result, err := s.engine.Run(ctx, outlet)

	g := graph.Build(result.Profiles)
	now := time.Now()

	s.jobsMu.Lock()
	job.Status = "done"
	if err != nil {
		job.Status = "failed"
	}
	job.Reason = result.Reason
	job.Profiles = len(result.Profiles)
	job.FinishedAt = &now
	s.jobsMu.Unlock()

	s.lastMu.Lock()
	s.lastResult = result
	s.lastGraph = g
	s.lastMu.Unlock()

	if s.metrics != nil {
		reason := result.Reason
		if reason == "" {
			reason = types.ReasonOK
		}
		s.metrics.JobFinished(reason, time.Since(start))
	}

	if s.archive != nil && err == nil {
		if aerr := s.archive.SaveResult(r.Context(), job.ID, result, g); aerr != nil {
			s.logger.Error("archive failed", "job_id", job.ID, "error", aerr)
		}
	}

	status := http.StatusOK
	if err != nil && result.Reason == types.ReasonInvalidQuery {
		status = http.StatusBadRequest
	}
	s.jsonResponse(w, status, result)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	s.jobsMu.RLock()
	jobs := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		jobs = append(jobs, j)
	}
	s.jobsMu.RUnlock()

	s.jsonResponse(w, http.StatusOK, jobs)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.jobsMu.RLock()
	job, ok := s.jobs[id]
	s.jobsMu.RUnlock()

	if !ok {
		s.jsonResponse(w, http.StatusNotFound, map[string]string{"error": "job not found"})
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	s.lastMu.RLock()
	g := s.lastGraph
	s.lastMu.RUnlock()

	if g == nil {
		g = &types.NetworkGraph{Nodes: []types.Node{}, Edges: []types.Edge{}}
	}
	s.jsonResponse(w, http.StatusOK, g)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": config.Version,
	})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
