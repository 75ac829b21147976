package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"sync"
)

// VisitedSet tracks crawled URLs so each normalized URL is fetched at most
// once per job, regardless of fetch outcome.
type VisitedSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewVisitedSet creates a VisitedSet with the given estimated capacity.
func NewVisitedSet(estimatedCapacity int) *VisitedSet {
	return &VisitedSet{
		seen: make(map[string]struct{}, estimatedCapacity),
	}
}

// IsSeen returns true if the URL (after normalization) has been seen.
func (v *VisitedSet) IsSeen(rawURL string) bool {
	hash := hashURL(NormalizeURL(rawURL))

	v.mu.RLock()
	defer v.mu.RUnlock()
	_, ok := v.seen[hash]
	return ok
}

// MarkSeen marks a URL as seen. Returns false if it was already present,
// so mark-and-check is a single atomic step for concurrent enqueuers.
func (v *VisitedSet) MarkSeen(rawURL string) bool {
	hash := hashURL(NormalizeURL(rawURL))

	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.seen[hash]; ok {
		return false
	}
	v.seen[hash] = struct{}{}
	return true
}

// Count returns the number of unique URLs seen.
func (v *VisitedSet) Count() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.seen)
}

// trackingParams are query parameters that never change page identity.
var trackingParams = map[string]struct{}{
	"utm_source": {}, "utm_medium": {}, "utm_campaign": {},
	"utm_term": {}, "utm_content": {}, "utm_id": {},
	"fbclid": {}, "gclid": {}, "msclkid": {}, "ref": {},
}

// NormalizeURL canonicalizes a URL for crawl identity:
//   - lowercases scheme and host
//   - removes fragment and default ports
//   - strips tracking query parameters, sorts the rest
//   - removes trailing slash (except root)
func NormalizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	host := u.Hostname()
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		u.Host = host
	}

	if u.RawQuery != "" {
		params := u.Query()
		keys := make([]string, 0, len(params))
		for k := range params {
			if _, tracking := trackingParams[strings.ToLower(k)]; tracking {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var sorted []string
		for _, k := range keys {
			vals := params[k]
			sort.Strings(vals)
			for _, val := range vals {
				sorted = append(sorted, url.QueryEscape(k)+"="+url.QueryEscape(val))
			}
		}
		u.RawQuery = strings.Join(sorted, "&")
	}

	if u.Path != "/" && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimRight(u.Path, "/")
	}
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String()
}

// hashURL creates a compact hash of a normalized URL.
func hashURL(normalized string) string {
	h := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(h[:16]) // 128-bit hash
}
