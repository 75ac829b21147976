package engine

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"

	"newstrace/internal/types"
)

// datedPathRe matches /2024/05/17/ style article paths.
var datedPathRe = regexp.MustCompile(`/\d{4}/\d{1,2}/\d{1,2}/`)

// articleHints mark paths that usually hold a single story.
var articleHints = []string{
	"/article", "/news/", "/story", "/opinion",
	"/feature", "/analysis", "/reports", "/sport",
}

// listingHints mark index pages worth expanding: author and section
// indexes yield many bylines per fetch.
var listingHints = []string{
	"/author", "/staff", "/contributors", "/profile",
	"/section", "/topic", "/latest",
}

// registrableDomain returns the eTLD+1 for a hostname, falling back to the
// host itself for IPs and single-label names.
func registrableDomain(host string) string {
	host = strings.ToLower(host)
	if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return d
	}
	return host
}

// sameSite reports whether two hostnames share a registrable domain.
func sameSite(a, b string) bool {
	return registrableDomain(a) == registrableDomain(b)
}

// classifyPath tags a URL path as an article page, a listing page, or
// neither (""). Shallow paths count as listings: section fronts usually
// live one or two segments deep.
func classifyPath(path string) string {
	p := strings.ToLower(path)

	if datedPathRe.MatchString(p) {
		return types.TagArticle
	}
	for _, hint := range articleHints {
		if strings.Contains(p, hint) {
			return types.TagArticle
		}
	}
	for _, hint := range listingHints {
		if strings.Contains(p, hint) {
			return types.TagListing
		}
	}
	if segs := strings.Split(strings.Trim(p, "/"), "/"); len(segs) <= 2 && segs[0] != "" {
		return types.TagListing
	}
	return ""
}

// discoverLinks parses a fetched page and returns same-site crawl tasks for
// links matching the allow patterns. Depth and robots filtering happen at
// enqueue time, not here.
func discoverLinks(page *types.PageResult) []*types.CrawlTask {
	doc, err := page.Document()
	if err != nil {
		return nil
	}
	base, err := url.Parse(page.FinalURL)
	if err != nil {
		return nil
	}

	var tasks []*types.CrawlTask
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") {
			return
		}

		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		u := base.ResolveReference(ref)
		if u.Scheme != "http" && u.Scheme != "https" {
			return
		}
		if !sameSite(u.Hostname(), base.Hostname()) {
			return
		}

		tag := classifyPath(u.Path)
		if tag == "" {
			return
		}

		task, err := types.NewCrawlTask(u.String())
		if err != nil {
			return
		}
		task.Tag = tag
		task.Depth = page.Task.Depth + 1
		task.ParentURL = page.FinalURL
		if tag == types.TagListing {
			task.Priority = types.PriorityListing
		}
		tasks = append(tasks, task)
	})
	return tasks
}
