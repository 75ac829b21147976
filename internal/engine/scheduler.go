package engine

import (
	"context"
	"log/slog"
	"time"

	"newstrace/internal/types"
)

// pollInterval is how long an idle worker sleeps before re-checking the
// frontier.
const pollInterval = 25 * time.Millisecond

// idleExitPolls is how many consecutive empty polls, with no fetch in
// flight and no page awaiting the consumer, mean the crawl is exhausted.
const idleExitPolls = 8

// shouldStop reports whether a worker should stop dispatching: page budget
// spent or enough distinct profiles aggregated.
func (j *job) shouldStop() bool {
	if j.cfg.Engine.MaxPages > 0 && j.stats.pagesFetched.Load() >= int64(j.cfg.Engine.MaxPages) {
		return true
	}
	if j.cfg.Engine.MinProfiles > 0 && j.aggregator.Count() >= j.cfg.Engine.MinProfiles {
		return true
	}
	return false
}

// worker polls the frontier and dispatches fetches until the frontier is
// closed, the context expires, or the crawl is exhausted. Exhaustion is
// detected cooperatively: frontier empty, nothing in flight, nothing
// pending in the consumer.
func (j *job) worker(ctx context.Context, id int) {
	defer j.crawlWG.Done()

	logger := j.logger.With("worker", id)
	idle := 0
	for {
		if ctx.Err() != nil {
			return
		}
		if j.shouldStop() {
			j.frontier.Close()
			return
		}

		task := j.frontier.TryPop()
		if task == nil {
			if j.frontier.IsClosed() {
				return
			}
			idle++
			if idle >= idleExitPolls && j.inflight.Load() == 0 && j.pending.Load() == 0 && j.frontier.Len() == 0 {
				logger.Debug("frontier exhausted")
				j.frontier.Close()
				return
			}
			time.Sleep(pollInterval)
			continue
		}
		idle = 0

		j.inflight.Add(1)
		j.fetchOne(ctx, task, logger)
		j.inflight.Add(-1)
	}
}

// fetchOne runs a single fetch under the host governor and forwards the
// page to the consumer. The fetch itself runs detached from the job
// deadline so an expiring budget lets in-flight requests finish (or hit
// their own per-request timeout) rather than aborting them mid-read.
func (j *job) fetchOne(ctx context.Context, task *types.CrawlTask, logger *slog.Logger) {
	host := task.Host()
	if err := j.hosts.Acquire(ctx, host); err != nil {
		return
	}

	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), j.cfg.Engine.RequestTimeout)
	page, err := j.engine.fetcher.Fetch(fetchCtx, task)
	cancel()
	j.hosts.Release(host)

	if err != nil {
		j.stats.pagesFailed.Add(1)
		if m := j.engine.metrics; m != nil {
			m.FetchDone("error")
		}
		logger.Debug("fetch failed", "url", task.URLString(), "error", err)
		return
	}

	j.stats.pagesFetched.Add(1)
	if m := j.engine.metrics; m != nil {
		m.FetchDone("ok")
	}
	logger.Debug("fetched", "url", task.URLString(),
		"status", page.StatusCode, "bytes", len(page.Body),
		"took", page.FetchDuration.Round(time.Millisecond))

	j.pending.Add(1)
	j.pages <- page
}

// consume is the single consumer of fetched pages. All profile merging and
// link admission funnels through here, so the aggregate map needs no lock
// beyond its own and checkpoint snapshots are internally consistent.
func (j *job) consume(ctx context.Context) {
	processed := 0
	for page := range j.pages {
		j.processPage(ctx, page)
		j.pending.Add(-1)

		processed++
		if j.cfg.Engine.BatchSize > 0 && processed%j.cfg.Engine.BatchSize == 0 {
			j.writeCheckpoint(&types.ScrapeResult{
				OutletName: j.outlet,
				Website:    j.root,
				Profiles:   j.aggregator.Snapshot(),
				Stats:      j.stats.snapshot(),
			})
		}
	}
}

func (j *job) processPage(ctx context.Context, page *types.PageResult) {
	if !page.IsHTML() {
		return
	}

	if x := j.engine.extractor; x != nil {
		records := x.Extract(page)
		merged := 0
		for _, rec := range records {
			if j.aggregator.Merge(rec) {
				merged++
			}
		}
		j.stats.recordsMerged.Add(int64(merged))
		if m := j.engine.metrics; m != nil {
			m.PageExtracted(len(records))
			m.ProfilesTotal(j.aggregator.Count())
		}
	}

	if j.frontier.IsClosed() || ctx.Err() != nil {
		return
	}
	for _, task := range discoverLinks(page) {
		j.enqueue(ctx, task)
	}
}
