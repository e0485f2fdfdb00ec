// Package futures provides small leaf futures for composing work on a
// futurepool ThreadPool: immediate values, cooperative yields, timers and
// one-shot signals.
package futures

import (
	"context"
	"sync"
	"time"

	"github.com/Swind/go-future-pool/core"
)

type readyFuture struct{}

func (readyFuture) Poll(*core.PollContext) core.PollResult { return core.Ready }

// Ready returns a future that completes on its first poll.
func Ready() core.Future {
	return readyFuture{}
}

// Run returns a future that calls fn once with the poll context and completes.
func Run(fn func(ctx context.Context)) core.Future {
	return core.FutureFunc(func(cx *core.PollContext) core.PollResult {
		fn(cx.Context())
		return core.Ready
	})
}

// Yield returns a future that gives its worker up n times before completing.
// Each yield wakes the task immediately, so it is polled again without
// waiting on anything else.
func Yield(n int) core.Future {
	remaining := n
	return core.FutureFunc(func(cx *core.PollContext) core.PollResult {
		if remaining <= 0 {
			return core.Ready
		}
		remaining--
		cx.Waker().Wake()
		return core.Pending
	})
}

// =============================================================================
// Sleep
// =============================================================================

type sleepFuture struct {
	d time.Duration

	mu       sync.Mutex
	deadline time.Time
	timer    *time.Timer
}

// Sleep returns a future that completes once d has elapsed since its first poll.
func Sleep(d time.Duration) core.Future {
	return &sleepFuture{d: d}
}

func (f *sleepFuture) Poll(cx *core.PollContext) core.PollResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	if f.timer == nil {
		if f.d <= 0 {
			return core.Ready
		}
		f.deadline = now.Add(f.d)
		waker := cx.Waker()
		f.timer = time.AfterFunc(f.d, waker.Wake)
		return core.Pending
	}

	if !now.Before(f.deadline) {
		return core.Ready
	}
	// Woken early by someone else; the timer is still armed.
	return core.Pending
}

// =============================================================================
// Signal
// =============================================================================

// Signal is a one-shot event. Futures returned by Wait complete once Fire
// has been called; Fire may be called from any goroutine.
type Signal struct {
	mu     sync.Mutex
	fired  bool
	wakers []core.Waker
}

// NewSignal creates an unfired Signal.
func NewSignal() *Signal {
	return &Signal{}
}

// Fire marks the signal as fired and wakes every waiting future.
// Calling it more than once is a no-op.
func (s *Signal) Fire() {
	s.mu.Lock()
	if s.fired {
		s.mu.Unlock()
		return
	}
	s.fired = true
	wakers := s.wakers
	s.wakers = nil
	s.mu.Unlock()

	for _, w := range wakers {
		w.Wake()
	}
}

// Fired reports whether Fire has been called.
func (s *Signal) Fired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fired
}

// Wait returns a future that completes once the signal fires.
func (s *Signal) Wait() core.Future {
	registered := false
	return core.FutureFunc(func(cx *core.PollContext) core.PollResult {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.fired {
			return core.Ready
		}
		if !registered {
			s.wakers = append(s.wakers, cx.Waker())
			registered = true
		}
		return core.Pending
	})
}

// =============================================================================
// Sequence
// =============================================================================

// Sequence returns a future that drives each future to completion in order.
// A step that completes hands over to the next one within the same poll.
func Sequence(steps ...core.Future) core.Future {
	i := 0
	return core.FutureFunc(func(cx *core.PollContext) core.PollResult {
		for i < len(steps) {
			if steps[i].Poll(cx) == core.Pending {
				return core.Pending
			}
			steps[i] = nil
			i++
		}
		return core.Ready
	})
}
