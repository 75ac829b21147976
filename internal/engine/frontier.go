package engine

import (
	"container/heap"
	"sync"

	"newstrace/internal/types"
)

// Frontier is a thread-safe priority queue of crawl tasks. Listing seeds
// dispatch before discovered article links.
type Frontier struct {
	mu     sync.Mutex
	pq     priorityQueue
	closed bool
}

// NewFrontier creates an empty Frontier.
func NewFrontier() *Frontier {
	f := &Frontier{
		pq: make(priorityQueue, 0, 256),
	}
	heap.Init(&f.pq)
	return f
}

// Push adds a task. Pushes after Close are dropped.
func (f *Frontier) Push(task *types.CrawlTask) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	heap.Push(&f.pq, &pqItem{task: task, priority: task.Priority})
}

// TryPop attempts a non-blocking dequeue. Returns nil if empty.
func (f *Frontier) TryPop() *types.CrawlTask {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.pq.Len() == 0 {
		return nil
	}
	return heap.Pop(&f.pq).(*pqItem).task
}

// Len returns the number of queued tasks.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pq.Len()
}

// Close stops the frontier; workers polling TryPop treat closed+empty as
// end of work.
func (f *Frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

// IsClosed reports whether Close has been called.
func (f *Frontier) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Drain removes and returns all remaining tasks.
func (f *Frontier) Drain() []*types.CrawlTask {
	f.mu.Lock()
	defer f.mu.Unlock()

	tasks := make([]*types.CrawlTask, 0, f.pq.Len())
	for f.pq.Len() > 0 {
		tasks = append(tasks, heap.Pop(&f.pq).(*pqItem).task)
	}
	return tasks
}

// --- Priority Queue Implementation ---

type pqItem struct {
	task     *types.CrawlTask
	priority int
	index    int
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	// Lower priority value = higher priority
	return pq[i].priority < pq[j].priority
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	n := len(*pq)
	item := x.(*pqItem)
	item.index = n
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // GC
	item.index = -1
	*pq = old[:n-1]
	return item
}
