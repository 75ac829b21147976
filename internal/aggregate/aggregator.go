package aggregate

import (
	"sort"
	"strings"
	"sync"
	"time"

	"newstrace/internal/extract"
	"newstrace/internal/types"
)

// Aggregator folds raw per-page profile records into one profile per
// journalist. Merging is idempotent: replaying a record the aggregator has
// already absorbed changes nothing, so re-crawled or duplicated pages
// cannot inflate article counts.
type Aggregator struct {
	mu         sync.RWMutex
	profiles   map[string]*profileState
	seenTitles map[string]map[string]struct{}
}

type profileState struct {
	name    string
	beat    string
	latest  string
	url     string
	date    string
	count   int
}

// New creates an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{
		profiles:   make(map[string]*profileState),
		seenTitles: make(map[string]map[string]struct{}),
	}
}

// Merge absorbs one raw record. The article count advances once per
// distinct title per journalist; the beat, latest article, and date track
// whichever of the journalist's articles is newest. Returns true when the
// record changed state.
func (a *Aggregator) Merge(rec types.RawProfileRecord) bool {
	name := strings.TrimSpace(rec.Name)
	if name == "" || strings.EqualFold(name, "unknown") {
		return false
	}
	title := strings.TrimSpace(rec.ArticleTitle)
	if title == "" {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	key := profileKey(name)
	titles, ok := a.seenTitles[key]
	if !ok {
		titles = make(map[string]struct{})
		a.seenTitles[key] = titles
	}
	if _, dup := titles[title]; dup {
		return false
	}
	titles[title] = struct{}{}

	p, ok := a.profiles[key]
	if !ok {
		a.profiles[key] = &profileState{
			name:   name,
			beat:   extract.NormalizeBeat(rec.RawBeat, title),
			latest: title,
			url:    rec.SourceURL,
			date:   rec.ArticleDate,
			count:  1,
		}
		return true
	}

	p.count++
	if preferNewer(p.date, rec.ArticleDate) {
		p.date = rec.ArticleDate
		p.latest = title
		p.url = rec.SourceURL
		p.beat = extract.NormalizeBeat(rec.RawBeat, title)
	}
	return true
}

// Count returns the number of distinct journalists aggregated so far.
func (a *Aggregator) Count() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.profiles)
}

// Snapshot returns the current profiles sorted by article count descending,
// then name ascending. The returned slice is a copy and never nil.
func (a *Aggregator) Snapshot() []types.JournalistProfile {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]types.JournalistProfile, 0, len(a.profiles))
	for _, p := range a.profiles {
		out = append(out, types.JournalistProfile{
			Name:            p.name,
			Beat:            p.beat,
			LatestArticle:   p.latest,
			ArticleURL:      p.url,
			PublicationDate: p.date,
			ArticlesCount:   p.count,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ArticlesCount != out[j].ArticlesCount {
			return out[i].ArticlesCount > out[j].ArticlesCount
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// profileKey folds a display name into the journalist identity key:
// whitespace collapsed, case-insensitive. The first-seen display form is
// what Snapshot reports.
func profileKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// preferNewer reports whether candidate should replace existing as the
// journalist's latest publication date. A date that does not parse never
// replaces one that does.
func preferNewer(existing, candidate string) bool {
	if candidate == "" {
		return false
	}
	if existing == "" {
		return true
	}
	ct, cerr := time.Parse("2006-01-02", candidate)
	et, eerr := time.Parse("2006-01-02", existing)
	if cerr != nil {
		return false
	}
	if eerr != nil {
		return true
	}
	return ct.After(et)
}
