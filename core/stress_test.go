package core

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// guardedYield returns Pending `wakes` times, waking itself each time, and
// counts overlapping polls.
type guardedYield struct {
	wakes      int32
	polls      atomic.Int32
	inPoll     atomic.Int32
	violations *atomic.Int64
	totalPolls *atomic.Int64
	wg         *sync.WaitGroup
}

func (f *guardedYield) Poll(cx *PollContext) PollResult {
	if !f.inPoll.CompareAndSwap(0, 1) {
		f.violations.Add(1)
	}
	defer f.inPoll.Store(0)

	f.totalPolls.Add(1)
	n := f.polls.Add(1)
	if n > f.wakes {
		f.wg.Done()
		return Ready
	}

	waker := cx.Waker()
	if n%2 == 0 {
		waker.Wake()
	} else {
		go waker.Wake()
	}
	return Pending
}

// TestThreadPool_Stress tests many self-waking tasks on a small pool
// Main test items:
// 1. Every task completes (no lost wakeups)
// 2. Each task is polled exactly wakes+1 times
// 3. No task is ever polled by two workers at once
func TestThreadPool_Stress(t *testing.T) {
	const (
		workers = 4
		tasks   = 1000
		wakes   = 10
	)
	pool := newTestPool(t, workers, nil)

	var violations, totalPolls atomic.Int64
	var wg sync.WaitGroup
	wg.Add(tasks)

	futures := make([]*guardedYield, tasks)
	for i := range futures {
		futures[i] = &guardedYield{
			wakes:      wakes,
			violations: &violations,
			totalPolls: &totalPolls,
			wg:         &wg,
		}
		pool.Spawn(futures[i])
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()
	waitClosed(t, finished, 30*time.Second, "all tasks to complete")

	if got := violations.Load(); got != 0 {
		t.Fatalf("mutual exclusion violations = %d, want 0", got)
	}
	if got := totalPolls.Load(); got != tasks*(wakes+1) {
		t.Errorf("total polls = %d, want %d", got, tasks*(wakes+1))
	}
	for i, f := range futures {
		if got := f.polls.Load(); got != wakes+1 {
			t.Fatalf("task %d polled %d times, want %d", i, got, wakes+1)
		}
	}
	waitForCondition(t, time.Second, func() bool { return pool.Stats().Live == 0 })
}
