package core

import "sync"

const (
	defaultQueueCap     = 16
	compactMinCap       = 64 // Don't compact if capacity is less than this
	compactShrinkFactor = 4  // Trigger compaction when len < cap/4
)

type messageKind uint8

const (
	messageRun messageKind = iota + 1
	messageClose
)

func (k messageKind) String() string {
	switch k {
	case messageRun:
		return "Run"
	case messageClose:
		return "Close"
	default:
		return "Unknown"
	}
}

// message is a run queue entry: Run carries a task, Close tells one worker to exit.
type message struct {
	kind messageKind
	task *Task
}

// =============================================================================
// runQueue: unbounded FIFO shared by all workers of a pool
// =============================================================================

// runQueue is a multi-producer, multi-consumer FIFO. Consumers block in pop
// while it is empty. Close messages have no priority over Run messages.
type runQueue struct {
	mu     sync.Mutex
	items  []message
	runs   int // Run messages currently queued
	signal chan struct{}
}

func newRunQueue(consumers int) *runQueue {
	return &runQueue{
		items:  make([]message, 0, defaultQueueCap),
		signal: make(chan struct{}, max(consumers*2, 1)),
	}
}

func (q *runQueue) push(m message) {
	q.mu.Lock()
	q.items = append(q.items, m)
	if m.kind == messageRun {
		q.runs++
	}
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
		// Signal channel full: enough wakeups are already pending for the
		// consumers to drain the queue.
	}
}

func (q *runQueue) tryPop() (message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return message{}, false
	}

	m := q.items[0]
	// Zero out the element in the underlying array so the task can be collected
	q.items[0] = message{}
	q.items = q.items[1:]
	if m.kind == messageRun {
		q.runs--
	}
	q.maybeCompactLocked()

	return m, true
}

// pop blocks until a message is available.
func (q *runQueue) pop() message {
	for {
		if m, ok := q.tryPop(); ok {
			return m
		}
		<-q.signal
	}
}

func (q *runQueue) maybeCompactLocked() {
	n := len(q.items)
	c := cap(q.items)

	if c < compactMinCap {
		return
	}
	if n == 0 {
		q.items = make([]message, 0, defaultQueueCap)
		return
	}
	if n*compactShrinkFactor >= c {
		return
	}

	newCap := max(max(c/2, defaultQueueCap), n)

	newSlice := make([]message, n, newCap)
	copy(newSlice, q.items)
	q.items = newSlice
}

// len returns the number of queued messages of any kind.
func (q *runQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// pendingRuns returns the number of queued Run messages.
func (q *runQueue) pendingRuns() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.runs
}
