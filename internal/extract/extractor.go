package extract

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"newstrace/internal/types"
)

// Extractor pulls journalist profile records out of fetched pages using
// structural heuristics: byline markup, metadata tags, and URL shape. It
// holds no per-job state and is safe for concurrent use.
type Extractor struct {
	logger *slog.Logger
}

// New creates an Extractor.
func New(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger.With("component", "extractor")}
}

var (
	bylinePrefixRe = regexp.MustCompile(`(?i)^(by|written by|author|reporter|byline)\s*[:\-]?\s*`)
	bylineClassRe  = regexp.MustCompile(`(?i)(author|byline|writer|journalist|reporter|contributor)`)
	sectionClassRe = regexp.MustCompile(`(?i)(section|topic|category|breadcrumb|tag|kicker)`)
	nameJunkRe     = regexp.MustCompile(`[\.,/\(\)\[\]\*"'` + "`" + `“”]`)
	spacesRe       = regexp.MustCompile(`\s+`)
	isoDateRe      = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	authorSplitRe  = regexp.MustCompile(`,| and | & |;|\n`)
)

// notNames are byline texts that name a desk, not a person.
var notNames = map[string]struct{}{
	"contributors": {}, "staff": {}, "editorial": {}, "team": {},
	"admin": {}, "newsroom": {}, "news desk": {}, "agencies": {},
	"correspondent": {}, "staff reporter": {}, "reuters": {}, "ap": {},
}

// Extract parses one HTML page into raw profile records: one record per
// distinct byline found, each carrying the page's title, date, and beat.
// Pages with no recognizable byline yield nothing.
func (x *Extractor) Extract(page *types.PageResult) []types.RawProfileRecord {
	doc, err := page.Document()
	if err != nil {
		x.logger.Debug("parse failed", "url", page.FinalURL, "error", err)
		return nil
	}

	names := extractAuthors(doc)
	if len(names) == 0 {
		return nil
	}

	title := extractTitle(doc)
	date := extractPubDate(doc)
	section := extractSection(doc, page.FinalURL)

	records := make([]types.RawProfileRecord, 0, len(names))
	for _, name := range names {
		records = append(records, types.RawProfileRecord{
			Name:         name,
			RawBeat:      section,
			ArticleTitle: title,
			ArticleDate:  date,
			SourceURL:    page.FinalURL,
		})
	}
	return records
}

// NormalizeName canonicalizes a byline: strips the leading "By", drops
// punctuation, collapses whitespace, and title-cases the result. Returns
// "" for anything too short to be a name.
func NormalizeName(name string) string {
	s := strings.TrimSpace(name)
	s = bylinePrefixRe.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		// zero-width characters pasted in from CMS editors
		if r == '​' || r == '‌' || r == '‍' {
			return -1
		}
		return r
	}, s)
	s = nameJunkRe.ReplaceAllString(s, " ")
	s = spacesRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if len(s) <= 1 {
		return ""
	}
	return titleCase(s)
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// extractAuthors collects candidate bylines from metadata, rel=author
// links, itemprop markup, and byline-classed elements.
func extractAuthors(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	var names []string
	add := func(raw string) {
		for _, part := range splitAuthorList(raw) {
			name := NormalizeName(part)
			if name == "" {
				continue
			}
			if _, bad := notNames[strings.ToLower(name)]; bad {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}

	doc.Find(`meta[name="author"], meta[property="article:author"]`).Each(func(_ int, s *goquery.Selection) {
		if content, ok := s.Attr("content"); ok {
			add(content)
		}
	})
	doc.Find(`a[rel="author"]`).Each(func(_ int, s *goquery.Selection) {
		add(s.Text())
	})
	doc.Find(`[itemprop="author"], [itemprop="creator"]`).Each(func(_ int, s *goquery.Selection) {
		add(s.Text())
	})
	doc.Find("span, a, p, div").Each(func(_ int, s *goquery.Selection) {
		class, ok := s.Attr("class")
		if !ok || !bylineClassRe.MatchString(class) {
			return
		}
		// Skip containers: a byline element holds a short run of text,
		// not nested block structure.
		if s.Children().Find("div, p").Length() > 0 {
			return
		}
		text := spacesRe.ReplaceAllString(s.Text(), " ")
		if len(text) > 120 {
			return
		}
		add(text)
	})

	return names
}

func splitAuthorList(raw string) []string {
	raw = bylinePrefixRe.ReplaceAllString(strings.TrimSpace(raw), "")
	return authorSplitRe.Split(raw, -1)
}

// extractTitle prefers og:title over <title> over the first <h1>, and
// strips a trailing " | Site Name" style suffix.
func extractTitle(doc *goquery.Document) string {
	if t, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(t) != "" {
		return trimTitleSuffix(t)
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return trimTitleSuffix(t)
	}
	if t := strings.TrimSpace(doc.Find("h1").First().Text()); t != "" {
		return t
	}
	return "Unknown"
}

func trimTitleSuffix(t string) string {
	t = strings.TrimSpace(t)
	for _, sep := range []string{" | ", " – ", " - "} {
		if i := strings.LastIndex(t, sep); i > len(t)/2 {
			t = t[:i]
		}
	}
	return strings.TrimSpace(t)
}

// extractPubDate finds the publication date and returns it as ISO
// yyyy-mm-dd, or "" when nothing parseable is found.
func extractPubDate(doc *goquery.Document) string {
	if dt, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		if iso := toISODate(dt); iso != "" {
			return iso
		}
	}

	metaProps := []string{
		`meta[property="article:published_time"]`,
		`meta[property="article:published"]`,
		`meta[property="og:published_time"]`,
		`meta[property="og:updated_time"]`,
		`meta[name="pubdate"]`,
		`meta[name="publishdate"]`,
		`meta[name="publication_date"]`,
		`meta[name="date"]`,
		`meta[name="sailthru.date"]`,
	}
	for _, sel := range metaProps {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if iso := toISODate(content); iso != "" {
				return iso
			}
		}
	}

	// Last resort: an ISO-shaped date in the leading page text.
	text := doc.Find("body").Text()
	if len(text) > 2000 {
		text = text[:2000]
	}
	if m := isoDateRe.FindString(text); m != "" {
		return toISODate(m)
	}
	return ""
}

// toISODate parses a loosely formatted date string into yyyy-mm-dd.
// Unparseable input yields "".
func toISODate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// extractSection finds the page's section label and normalizes it into the
// beat vocabulary, falling back to the first URL path segment.
func extractSection(doc *goquery.Document, pageURL string) string {
	metaChecks := []string{
		`meta[property="article:section"]`,
		`meta[name="section"]`,
		`meta[itemprop="articleSection"]`,
		`meta[property="article:tag"]`,
		`meta[name="news_keywords"]`,
		`meta[name="keywords"]`,
	}
	for _, sel := range metaChecks {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			first := strings.TrimSpace(strings.SplitN(content, ",", 2)[0])
			if first != "" {
				return first
			}
		}
	}

	if s, ok := firstSectionText(doc, `[itemprop="articleSection"]`); ok {
		return s
	}
	if s, ok := firstSectionText(doc, `.breadcrumb a, nav[aria-label*="breadcrumb"] a, .breadcrumbs a`); ok {
		return s
	}

	var byClass string
	doc.Find("a, span, div").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, ok := s.Attr("class")
		if !ok || !sectionClassRe.MatchString(class) {
			return true
		}
		text := strings.TrimSpace(s.Text())
		if text == "" || len(text) >= 60 || strings.EqualFold(text, "home") {
			return true
		}
		byClass = text
		return false
	})
	if byClass != "" {
		return byClass
	}

	if u, err := url.Parse(pageURL); err == nil {
		for _, seg := range strings.Split(u.Path, "/") {
			if seg != "" {
				return seg
			}
		}
	}
	return ""
}

func firstSectionText(doc *goquery.Document, selector string) (string, bool) {
	var out string
	doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		t := strings.TrimSpace(s.Text())
		if t == "" || strings.EqualFold(t, "home") {
			return true
		}
		out = t
		return false
	})
	return out, out != ""
}
