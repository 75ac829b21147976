package engine

import (
	"testing"

	"newstrace/internal/types"
)

func mustTask(t *testing.T, rawURL string, priority int) *types.CrawlTask {
	t.Helper()
	task, err := types.NewCrawlTask(rawURL)
	if err != nil {
		t.Fatalf("new task %s: %v", rawURL, err)
	}
	task.Priority = priority
	return task
}

func TestFrontierPriorityOrder(t *testing.T) {
	f := NewFrontier()

	f.Push(mustTask(t, "https://example.com/story", types.PriorityArticle))
	f.Push(mustTask(t, "https://example.com/", types.PrioritySeed))
	f.Push(mustTask(t, "https://example.com/failed", types.PriorityRetry))
	f.Push(mustTask(t, "https://example.com/authors", types.PriorityListing))

	want := []int{types.PrioritySeed, types.PriorityListing, types.PriorityArticle, types.PriorityRetry}
	for i, p := range want {
		task := f.TryPop()
		if task == nil {
			t.Fatalf("pop %d: frontier empty", i)
		}
		if task.Priority != p {
			t.Errorf("pop %d: priority = %d, want %d", i, task.Priority, p)
		}
	}
	if f.TryPop() != nil {
		t.Error("expected empty frontier")
	}
}

func TestFrontierTryPopEmpty(t *testing.T) {
	f := NewFrontier()
	if task := f.TryPop(); task != nil {
		t.Errorf("TryPop on empty frontier = %v, want nil", task)
	}
}

func TestFrontierClose(t *testing.T) {
	f := NewFrontier()
	f.Push(mustTask(t, "https://example.com/a", types.PriorityArticle))
	f.Close()

	if !f.IsClosed() {
		t.Error("IsClosed = false after Close")
	}

	// Pushes after Close are dropped.
	f.Push(mustTask(t, "https://example.com/b", types.PriorityArticle))
	if got := f.Len(); got != 1 {
		t.Errorf("Len = %d after push-on-closed, want 1", got)
	}

	// Queued work remains poppable so in-flight results can drain.
	if task := f.TryPop(); task == nil {
		t.Error("TryPop after Close = nil, want queued task")
	}
}

func TestFrontierDrain(t *testing.T) {
	f := NewFrontier()
	for _, u := range []string{"https://example.com/a", "https://example.com/b", "https://example.com/c"} {
		f.Push(mustTask(t, u, types.PriorityArticle))
	}

	tasks := f.Drain()
	if len(tasks) != 3 {
		t.Errorf("Drain returned %d tasks, want 3", len(tasks))
	}
	if f.Len() != 0 {
		t.Errorf("Len = %d after Drain, want 0", f.Len())
	}
}
