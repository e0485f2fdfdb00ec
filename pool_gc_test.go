package futurepool

import (
	"context"
	"runtime"
	"sync/atomic"
	"testing"
	"time"
)

// parkedFuture returns Pending forever without keeping its waker.
type parkedFuture struct {
	polls atomic.Int32
}

func (f *parkedFuture) Poll(*PollContext) PollResult {
	f.polls.Add(1)
	return Pending
}

// finishedFuture completes on the first poll.
type finishedFuture struct {
	done chan struct{}
}

func (f *finishedFuture) Poll(*PollContext) PollResult {
	close(f.done)
	return Ready
}

func forceGC(finalized ...*atomic.Bool) {
	for range 10 {
		runtime.GC()
		all := true
		for _, f := range finalized {
			all = all && f.Load()
		}
		if all {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// TestThreadPool_GC_BasicCleanup tests that a shut down pool is collectable
// Given: a pool that has completed a future
// When: the pool is shut down and references are dropped
// Then: both the handle and the future are garbage collected
func TestThreadPool_GC_BasicCleanup(t *testing.T) {
	var poolFinalized, futureFinalized atomic.Bool

	pool, err := New(2)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	runtime.SetFinalizer(pool, func(*ThreadPool) { poolFinalized.Store(true) })

	future := &finishedFuture{done: make(chan struct{})}
	runtime.SetFinalizer(future, func(*finishedFuture) { futureFinalized.Store(true) })
	done := future.done

	pool.Spawn(future)
	future = nil
	<-done

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	pool = nil

	forceGC(&poolFinalized, &futureFinalized)

	if !poolFinalized.Load() {
		t.Error("ThreadPool GC'd: got = false, want = true")
	}
	if !futureFinalized.Load() {
		t.Error("completed future GC'd: got = false, want = true")
	}
}

// TestThreadPool_GC_ParkedFutureDropped tests that closing never keeps parked work alive
// Given: a future parked with nobody holding its waker
// When: the last handle is released
// Then: the future is garbage collected without being polled again
func TestThreadPool_GC_ParkedFutureDropped(t *testing.T) {
	var futureFinalized atomic.Bool

	pool, err := New(1)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	future := &parkedFuture{}
	runtime.SetFinalizer(future, func(f *parkedFuture) {
		if n := f.polls.Load(); n != 1 {
			t.Errorf("parked future polled %d times, want 1", n)
		}
		futureFinalized.Store(true)
	})
	pool.Spawn(future)

	deadline := time.Now().Add(2 * time.Second)
	for future.polls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	future = nil

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	forceGC(&futureFinalized)

	if !futureFinalized.Load() {
		t.Error("parked future GC'd: got = false, want = true")
	}
}
