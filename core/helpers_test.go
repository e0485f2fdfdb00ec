package core

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func waitForCondition(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func waitClosed(t *testing.T, ch <-chan struct{}, timeout time.Duration, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for %s", what)
	}
}

// newTestPool creates a quiet pool that is shut down when the test ends.
func newTestPool(t *testing.T, workers int, config *ThreadPoolConfig) *ThreadPool {
	t.Helper()
	if config == nil {
		config = &ThreadPoolConfig{}
	}
	if config.Logger == nil {
		config.Logger = NewNoOpLogger()
	}
	if config.Name == "" {
		config.Name = t.Name()
	}

	pool, err := NewThreadPoolWithConfig(workers, config)
	if err != nil {
		t.Fatalf("NewThreadPoolWithConfig(%d) failed: %v", workers, err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := pool.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown failed: %v", err)
		}
	})
	return pool
}

// readyAfter is a future that returns Pending until it has been polled n
// times. Every Pending poll hands its waker to wakers.
type readyAfter struct {
	n      int32
	polls  atomic.Int32
	wakers chan Waker
	done   chan struct{}
}

func newReadyAfter(n int32) *readyAfter {
	return &readyAfter{n: n, wakers: make(chan Waker, n+1), done: make(chan struct{})}
}

func (f *readyAfter) Poll(cx *PollContext) PollResult {
	if f.polls.Add(1) >= f.n {
		close(f.done)
		return Ready
	}
	f.wakers <- cx.Waker()
	return Pending
}

// recordingMetrics counts every Metrics call.
type recordingMetrics struct {
	spawned    atomic.Int64
	polls      atomic.Int64
	repolls    atomic.Int64
	completed  atomic.Int64
	panics     atomic.Int64
	depthCalls atomic.Int64
	rejected   atomic.Int64

	mu       sync.Mutex
	wakes    map[WakeOutcome]int
	reasons  []string
	panicked []any
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{wakes: make(map[WakeOutcome]int)}
}

func (m *recordingMetrics) RecordTaskSpawned(poolName string)                  { m.spawned.Add(1) }
func (m *recordingMetrics) RecordPoll(poolName string, duration time.Duration) { m.polls.Add(1) }
func (m *recordingMetrics) RecordRepoll(poolName string)                       { m.repolls.Add(1) }
func (m *recordingMetrics) RecordTaskCompleted(poolName string)                { m.completed.Add(1) }
func (m *recordingMetrics) RecordQueueDepth(poolName string, depth int)        { m.depthCalls.Add(1) }

func (m *recordingMetrics) RecordWake(poolName string, outcome WakeOutcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wakes[outcome]++
}

func (m *recordingMetrics) RecordTaskPanic(poolName string, panicInfo any) {
	m.panics.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panicked = append(m.panicked, panicInfo)
}

func (m *recordingMetrics) RecordTaskRejected(poolName string, reason string) {
	m.rejected.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reasons = append(m.reasons, reason)
}

func (m *recordingMetrics) wakeCount(outcome WakeOutcome) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wakes[outcome]
}

var _ Metrics = (*recordingMetrics)(nil)

type recordingPanicHandler struct {
	mu      sync.Mutex
	calls   int
	last    any
	worker  int
	task    TaskID
	hasTask bool
}

func (h *recordingPanicHandler) HandlePanic(ctx context.Context, poolName string, workerID int, panicInfo any, stackTrace []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	h.last = panicInfo
	h.worker = workerID
	h.task, h.hasTask = TaskIDFromContext(ctx)
}

type recordingRejectedHandler struct {
	mu      sync.Mutex
	reasons []string
}

func (h *recordingRejectedHandler) HandleRejectedTask(poolName string, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reasons = append(h.reasons, reason)
}

func expectInvariantViolation(t *testing.T, op string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		iv, ok := r.(*InvariantViolation)
		if !ok {
			t.Fatalf("expected *InvariantViolation panic, got %v", r)
		}
		if iv.Op != op {
			t.Fatalf("violation op = %q, want %q", iv.Op, op)
		}
	}()
	fn()
}
