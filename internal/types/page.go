package types

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// PageResult is the outcome of fetching one crawl task.
type PageResult struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Headers are the response HTTP headers.
	Headers http.Header

	// Body is the decompressed response body.
	Body []byte

	// Task is the originating crawl task.
	Task *CrawlTask

	// ContentType is the MIME type of the response.
	ContentType string

	// FinalURL is the URL after any redirects.
	FinalURL string

	// FetchDuration is how long the fetch took.
	FetchDuration time.Duration

	// FetchedAt is when the response was received.
	FetchedAt time.Time

	doc *goquery.Document
}

// NewPageResult builds a PageResult from an http.Response whose body has
// already been read and decompressed.
func NewPageResult(task *CrawlTask, httpResp *http.Response, body []byte, duration time.Duration) *PageResult {
	return &PageResult{
		StatusCode:    httpResp.StatusCode,
		Headers:       httpResp.Header,
		Body:          body,
		Task:          task,
		ContentType:   httpResp.Header.Get("Content-Type"),
		FinalURL:      httpResp.Request.URL.String(),
		FetchDuration: duration,
		FetchedAt:     time.Now(),
	}
}

// NewRenderedPageResult builds a PageResult from a browser-rendered page,
// where no http.Response is available.
func NewRenderedPageResult(task *CrawlTask, statusCode int, finalURL string, body []byte, duration time.Duration) *PageResult {
	return &PageResult{
		StatusCode:    statusCode,
		Headers:       http.Header{},
		Body:          body,
		Task:          task,
		ContentType:   "text/html",
		FinalURL:      finalURL,
		FetchDuration: duration,
		FetchedAt:     time.Now(),
	}
}

// Document returns the parsed goquery document, lazily initializing it.
func (p *PageResult) Document() (*goquery.Document, error) {
	if p.doc != nil {
		return p.doc, nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(p.Body))
	if err != nil {
		return nil, err
	}
	p.doc = doc
	return doc, nil
}

// IsHTML reports whether the response claims an HTML content type.
func (p *PageResult) IsHTML() bool {
	ct := strings.ToLower(p.ContentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}

// IsSuccess reports whether the response status is 2xx.
func (p *PageResult) IsSuccess() bool {
	return p.StatusCode >= 200 && p.StatusCode < 300
}
