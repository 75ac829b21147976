package engine

import (
	"testing"

	"newstrace/internal/types"
)

func TestClassifyPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/news/world/story-123", types.TagArticle},
		{"/2024/05/17/some-headline", types.TagArticle},
		{"/opinion/a-long-piece", types.TagArticle},
		{"/author/jane-doe", types.TagListing},
		{"/staff", types.TagListing},
		{"/section/politics", types.TagListing},
		{"/world", types.TagListing},
		{"/about/careers/openings/2024", ""},
		{"/", ""},
	}

	for _, tt := range tests {
		if got := classifyPath(tt.path); got != tt.want {
			t.Errorf("classifyPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestSameSite(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"www.example.com", "example.com", true},
		{"news.example.com", "example.com", true},
		{"example.com", "other.com", false},
		{"127.0.0.1", "127.0.0.1", true},
		{"127.0.0.1", "127.0.0.2", false},
	}
	for _, tt := range tests {
		if got := sameSite(tt.a, tt.b); got != tt.want {
			t.Errorf("sameSite(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestDiscoverLinks(t *testing.T) {
	html := `<html><body>
		<a href="/news/one">One</a>
		<a href="https://example.com/author/jane">Jane</a>
		<a href="https://elsewhere.org/news/offsite">Offsite</a>
		<a href="mailto:tips@example.com">Tips</a>
		<a href="#top">Top</a>
		<a href="/about/careers/openings/2024">Careers</a>
	</body></html>`

	task := mustTask(t, "https://example.com/world", types.PriorityListing)
	page := &types.PageResult{
		StatusCode:  200,
		Body:        []byte(html),
		Task:        task,
		ContentType: "text/html",
		FinalURL:    "https://example.com/world",
	}

	tasks := discoverLinks(page)
	if len(tasks) != 2 {
		t.Fatalf("discovered %d tasks, want 2: %+v", len(tasks), tasks)
	}

	byURL := make(map[string]*types.CrawlTask)
	for _, task := range tasks {
		byURL[task.URLString()] = task
		if task.Depth != 1 {
			t.Errorf("task %s depth = %d, want 1", task.URLString(), task.Depth)
		}
		if task.ParentURL != "https://example.com/world" {
			t.Errorf("task %s parent = %q", task.URLString(), task.ParentURL)
		}
	}

	article, ok := byURL["https://example.com/news/one"]
	if !ok {
		t.Fatal("article link not discovered")
	}
	if article.Tag != types.TagArticle {
		t.Errorf("article tag = %q, want %q", article.Tag, types.TagArticle)
	}

	listing, ok := byURL["https://example.com/author/jane"]
	if !ok {
		t.Fatal("author link not discovered")
	}
	if listing.Tag != types.TagListing {
		t.Errorf("author tag = %q, want %q", listing.Tag, types.TagListing)
	}
	if listing.Priority != types.PriorityListing {
		t.Errorf("author priority = %d, want %d", listing.Priority, types.PriorityListing)
	}
}

func TestDiscoverLinksRelativeResolution(t *testing.T) {
	html := `<a href="story-2">Next</a>`
	task := mustTask(t, "https://example.com/news/story-1", types.PriorityArticle)
	page := &types.PageResult{
		Body:     []byte(html),
		Task:     task,
		FinalURL: "https://example.com/news/story-1",
	}

	tasks := discoverLinks(page)
	if len(tasks) != 1 {
		t.Fatalf("discovered %d tasks, want 1", len(tasks))
	}
	if got := tasks[0].URLString(); got != "https://example.com/news/story-2" {
		t.Errorf("resolved URL = %q", got)
	}
}
