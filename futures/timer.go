package futures

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/Swind/go-future-pool/core"
)

// deadline is a waker scheduled to fire at runAt
type deadline struct {
	runAt time.Time
	waker core.Waker
	fired bool
	index int // for heap interface
}

// deadlineHeap implements heap.Interface
type deadlineHeap []*deadline

func (h deadlineHeap) Len() int           { return len(h) }
func (h deadlineHeap) Less(i, j int) bool { return h[i].runAt.Before(h[j].runAt) }
func (h deadlineHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *deadlineHeap) Push(x any) {
	n := len(*h)
	item := x.(*deadline)
	item.index = n
	*h = append(*h, item)
}

func (h *deadlineHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // avoid memory leak
	item.index = -1
	*h = old[0 : n-1]
	return item
}

func (h deadlineHeap) peek() *deadline {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}

// Timer drives many sleeping futures from a single goroutine and a single
// runtime timer. Use it instead of Sleep when a pool holds a large number of
// sleeping futures at once.
//
// A stopped Timer never wakes its pending sleepers again; their tasks stay
// parked.
type Timer struct {
	mu     sync.Mutex
	pq     deadlineHeap
	wakeup chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTimer starts a Timer. Stop must be called to release its goroutine.
func NewTimer() *Timer {
	ctx, cancel := context.WithCancel(context.Background())
	t := &Timer{
		pq:     make(deadlineHeap, 0),
		wakeup: make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	heap.Init(&t.pq)
	go t.loop()
	return t
}

// Sleep returns a future that completes once d has elapsed since its first
// poll, woken by t.
func (t *Timer) Sleep(d time.Duration) core.Future {
	return &timerSleep{timer: t, d: d}
}

// Pending returns the number of sleepers that have not fired yet.
func (t *Timer) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pq)
}

// Stop terminates the timer goroutine and drops every pending sleeper.
func (t *Timer) Stop() {
	t.cancel()
	<-t.done

	t.mu.Lock()
	t.pq = make(deadlineHeap, 0)
	t.mu.Unlock()
}

func (t *Timer) schedule(item *deadline) {
	t.mu.Lock()
	defer t.mu.Unlock()

	heap.Push(&t.pq, item)
	if item.index == 0 {
		select {
		case t.wakeup <- struct{}{}:
		default:
		}
	}
}

// rearm replaces the waker of an item that has not fired yet.
func (t *Timer) rearm(item *deadline, waker core.Waker) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !item.fired {
		item.waker = waker
	}
}

func (t *Timer) loop() {
	defer close(t.done)

	timer := time.NewTimer(time.Hour)
	timer.Stop()

	for {
		next, ok := t.nextRun()
		if !ok {
			next = 1000 * time.Hour
		}
		timer.Reset(next)

		select {
		case <-t.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			t.fireExpired()
		case <-t.wakeup:
			timer.Stop()
		}
	}
}

// nextRun reports how long to wait for the earliest deadline.
// ok is false when nothing is scheduled.
func (t *Timer) nextRun() (wait time.Duration, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	item := t.pq.peek()
	if item == nil {
		return 0, false
	}
	return max(time.Until(item.runAt), 0), true
}

// fireExpired wakes every expired sleeper outside the lock.
func (t *Timer) fireExpired() {
	t.mu.Lock()

	now := time.Now()
	var expired []core.Waker
	for t.pq.Len() > 0 {
		item := t.pq.peek()
		if item.runAt.After(now) {
			break
		}
		heap.Pop(&t.pq)
		item.fired = true
		expired = append(expired, item.waker)
		item.waker = nil
	}

	t.mu.Unlock()

	for _, w := range expired {
		w.Wake()
	}
}

type timerSleep struct {
	timer *Timer
	d     time.Duration
	entry *deadline
}

func (f *timerSleep) Poll(cx *core.PollContext) core.PollResult {
	if f.entry == nil {
		if f.d <= 0 {
			return core.Ready
		}
		f.entry = &deadline{runAt: time.Now().Add(f.d), waker: cx.Waker()}
		f.timer.schedule(f.entry)
		return core.Pending
	}

	if !time.Now().Before(f.entry.runAt) {
		return core.Ready
	}
	f.timer.rearm(f.entry, cx.Waker())
	return core.Pending
}
