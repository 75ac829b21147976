package engine

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"newstrace/internal/aggregate"
	"newstrace/internal/config"
	"newstrace/internal/types"
)

// JobState tracks where a scrape job is in its lifecycle.
type JobState int32

const (
	StateInit JobState = iota
	StateResolving
	StateCrawling
	StatePersisting
	StateFinalizing
	StateDone
	StateFailed
)

func (s JobState) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateResolving:
		return "resolving"
	case StateCrawling:
		return "crawling"
	case StatePersisting:
		return "persisting"
	case StateFinalizing:
		return "finalizing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Fetcher fetches one page per crawl task. Implementations handle their own
// retry/backoff; an error return is terminal for the task.
type Fetcher interface {
	Fetch(ctx context.Context, task *types.CrawlTask) (*types.PageResult, error)
	Close() error
}

// Resolver turns an outlet name into a validated root URL.
type Resolver interface {
	Resolve(ctx context.Context, outlet string) (string, error)
}

// RobotsGate answers allow/deny per URL.
type RobotsGate interface {
	Allowed(ctx context.Context, rawURL string) bool
	Sitemaps(ctx context.Context, root string) []string
}

// Extractor parses a fetched page into zero or more raw profile records.
type Extractor interface {
	Extract(page *types.PageResult) []types.RawProfileRecord
}

// Checkpointer durably persists a snapshot of the job's result so far.
type Checkpointer interface {
	Write(result *types.ScrapeResult) error
}

// MetricsSink receives crawl events. All methods must be cheap.
type MetricsSink interface {
	FetchDone(outcome string)
	PageExtracted(records int)
	ProfilesTotal(n int)
	FrontierDepth(n int)
	CheckpointWritten()
}

// Engine runs scrape jobs: resolve, crawl, extract, aggregate, checkpoint.
// Per-job state lives in a job value created by Run, so one Engine serves
// many sequential or concurrent jobs.
type Engine struct {
	cfg    *config.Config
	logger *slog.Logger

	resolver   Resolver
	fetcher    Fetcher
	robots     RobotsGate
	extractor  Extractor
	checkpoint Checkpointer
	metrics    MetricsSink
}

// New creates an Engine with the given configuration.
func New(cfg *config.Config, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		logger: logger.With("component", "engine"),
	}
}

// SetResolver sets the domain resolver.
func (e *Engine) SetResolver(r Resolver) { e.resolver = r }

// SetFetcher sets the page fetcher.
func (e *Engine) SetFetcher(f Fetcher) { e.fetcher = f }

// SetRobots sets the robots gate.
func (e *Engine) SetRobots(g RobotsGate) { e.robots = g }

// SetExtractor sets the profile extractor.
func (e *Engine) SetExtractor(x Extractor) { e.extractor = x }

// SetCheckpoint sets the checkpoint store.
func (e *Engine) SetCheckpoint(c Checkpointer) { e.checkpoint = c }

// SetMetrics sets an optional metrics sink.
func (e *Engine) SetMetrics(m MetricsSink) { e.metrics = m }

// job is the per-run crawl state. The visited set and host governor are
// mutated only via the scheduler; the profile map only via the consumer
// goroutine's serialized merge.
type job struct {
	engine *Engine
	cfg    *config.Config
	logger *slog.Logger

	outlet string
	root   string

	state      atomic.Int32
	frontier   *Frontier
	visited    *VisitedSet
	hosts      *HostGovernor
	aggregator *aggregate.Aggregator

	pages    chan *types.PageResult
	stats    jobStats
	crawlWG  sync.WaitGroup
	inflight atomic.Int64
	pending  atomic.Int64
}

type jobStats struct {
	pagesFetched  atomic.Int64
	pagesFailed   atomic.Int64
	urlsEnqueued  atomic.Int64
	urlsFiltered  atomic.Int64
	recordsMerged atomic.Int64
	checkpoints   atomic.Int64
}

func (s *jobStats) snapshot() *types.JobStats {
	return &types.JobStats{
		PagesFetched:  s.pagesFetched.Load(),
		PagesFailed:   s.pagesFailed.Load(),
		URLsEnqueued:  s.urlsEnqueued.Load(),
		URLsFiltered:  s.urlsFiltered.Load(),
		RecordsMerged: s.recordsMerged.Load(),
		Checkpoints:   s.checkpoints.Load(),
	}
}

// Run executes one scrape job. It always returns a non-nil result carrying
// a reason code; the error is non-nil only for invalid input and failed
// resolution. On deadline expiry the result is whatever has been aggregated
// (and checkpointed) so far.
func (e *Engine) Run(ctx context.Context, outlet string) (*types.ScrapeResult, error) {
	outlet = strings.TrimSpace(outlet)
	if outlet == "" {
		return &types.ScrapeResult{
			OutletName: outlet,
			Profiles:   []types.JournalistProfile{},
			Reason:     types.ReasonInvalidQuery,
		}, types.ErrInvalidQuery
	}

	j := &job{
		engine:     e,
		cfg:        e.cfg,
		logger:     e.logger.With("outlet", outlet),
		outlet:     outlet,
		frontier:   NewFrontier(),
		visited:    NewVisitedSet(4096),
		hosts:      NewHostGovernor(e.cfg.Engine.PerHostLimit, e.cfg.Engine.PolitenessDelay),
		aggregator: aggregate.New(),
		pages:      make(chan *types.PageResult, e.cfg.Engine.Concurrency*2),
	}

	return j.run(ctx)
}

func (j *job) setState(s JobState) {
	j.state.Store(int32(s))
	j.logger.Debug("job state", "state", s.String())
}

func (j *job) run(ctx context.Context) (*types.ScrapeResult, error) {
	start := time.Now()
	j.setState(StateResolving)

	// Placeholder checkpoint: an immediate interruption still yields a
	// valid, parseable document.
	j.writeCheckpoint(&types.ScrapeResult{
		OutletName: j.outlet,
		Profiles:   []types.JournalistProfile{},
	})

	root, err := j.engine.resolver.Resolve(ctx, j.outlet)
	if err != nil {
		j.setState(StateFailed)
		result := &types.ScrapeResult{
			OutletName: j.outlet,
			Profiles:   []types.JournalistProfile{},
			Reason:     types.ReasonDomainNotFound,
			Stats:      j.stats.snapshot(),
		}
		if errors.Is(err, types.ErrInvalidQuery) {
			result.Reason = types.ReasonInvalidQuery
		}
		j.writeCheckpoint(result)
		j.logger.Warn("resolution failed", "error", err)
		return result, err
	}
	j.root = root
	j.logger.Info("crawl starting", "root", root,
		"workers", j.cfg.Engine.Concurrency,
		"per_host_limit", j.cfg.Engine.PerHostLimit,
		"budget", j.cfg.Engine.JobBudget,
	)

	j.setState(StateCrawling)
	crawlCtx, cancel := context.WithTimeout(ctx, j.cfg.Engine.JobBudget)
	defer cancel()

	j.seed(crawlCtx)

	// Deadline watcher: stop dispatching new fetches, let in-flight ones
	// finish or hit their own timeout.
	go func() {
		<-crawlCtx.Done()
		j.frontier.Close()
	}()

	for i := 0; i < j.cfg.Engine.Concurrency; i++ {
		j.crawlWG.Add(1)
		go j.worker(crawlCtx, i)
	}

	var consumerWG sync.WaitGroup
	consumerWG.Add(1)
	go func() {
		defer consumerWG.Done()
		j.consume(crawlCtx)
	}()

	j.crawlWG.Wait()
	close(j.pages)
	consumerWG.Wait()

	j.setState(StateFinalizing)
	reason := types.ReasonOK
	if crawlCtx.Err() != nil && j.aggregator.Count() < j.cfg.Engine.MinProfiles {
		reason = types.ReasonTimedOut
	}

	result := &types.ScrapeResult{
		OutletName: j.outlet,
		Website:    j.root,
		Profiles:   j.aggregator.Snapshot(),
		Reason:     reason,
		Stats:      j.stats.snapshot(),
	}
	j.writeCheckpoint(result)
	j.setState(StateDone)

	j.logger.Info("job complete",
		"elapsed", time.Since(start).Round(time.Millisecond),
		"profiles", len(result.Profiles),
		"pages", j.stats.pagesFetched.Load(),
		"failed", j.stats.pagesFailed.Load(),
		"reason", reason,
	)
	return result, nil
}

// seed enqueues the resolved root, the fixed listing paths, and any
// sitemaps advertised by robots.txt.
func (j *job) seed(ctx context.Context) {
	seeds := []string{j.root}
	for _, p := range j.cfg.Engine.SeedPaths {
		seeds = append(seeds, strings.TrimRight(j.root, "/")+p)
	}
	if j.engine.robots != nil {
		seeds = append(seeds, j.engine.robots.Sitemaps(ctx, j.root)...)
	}

	for i, s := range seeds {
		task, err := types.NewCrawlTask(s)
		if err != nil {
			continue
		}
		task.Depth = 0
		task.Tag = types.TagSeed
		task.Priority = types.PrioritySeed
		if i > 0 {
			task.Tag = types.TagListing
		}
		j.enqueue(ctx, task)
	}
}

// enqueue applies the admission checks — depth cap, visited-set, robots —
// and pushes the task. The visited-set is marked here, exactly once per
// normalized URL, regardless of later fetch outcome.
func (j *job) enqueue(ctx context.Context, task *types.CrawlTask) {
	if task.Depth > j.cfg.Engine.MaxDepth {
		j.stats.urlsFiltered.Add(1)
		return
	}
	if !sameSite(task.Host(), hostOf(j.root)) {
		j.stats.urlsFiltered.Add(1)
		return
	}
	if !j.visited.MarkSeen(task.URLString()) {
		j.stats.urlsFiltered.Add(1)
		return
	}
	if j.engine.robots != nil && !j.engine.robots.Allowed(ctx, task.URLString()) {
		j.stats.urlsFiltered.Add(1)
		return
	}
	j.frontier.Push(task)
	j.stats.urlsEnqueued.Add(1)
	if m := j.engine.metrics; m != nil {
		m.FrontierDepth(j.frontier.Len())
	}
}

func (j *job) writeCheckpoint(result *types.ScrapeResult) {
	if j.engine.checkpoint == nil {
		return
	}
	prev := JobState(j.state.Load())
	j.setState(StatePersisting)
	if err := j.engine.checkpoint.Write(result); err != nil {
		j.logger.Error("checkpoint write failed", "error", err)
	} else {
		j.stats.checkpoints.Add(1)
		if m := j.engine.metrics; m != nil {
			m.CheckpointWritten()
		}
	}
	j.setState(prev)
}

func hostOf(rawURL string) string {
	task, err := types.NewCrawlTask(rawURL)
	if err != nil {
		return ""
	}
	return task.Host()
}
