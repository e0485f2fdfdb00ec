package core

import (
	"context"
	"fmt"
	"sync/atomic"
)

// PoolState is shared by every handle, worker and task of one pool.
//
// It is only reachable from outside the package through WorkerProvisioner,
// which receives it to pass back to WorkerEntry.
type PoolState struct {
	id   string
	name string
	size int

	queue *runQueue

	handles atomic.Int64 // live ThreadPool handles
	closing atomic.Bool  // set once the last handle is released

	nextTaskID atomic.Uint64
	active     atomic.Int64 // tasks being driven by a worker
	parked     atomic.Int64 // tasks waiting for a wake
	live       atomic.Int64 // spawned tasks not yet complete
	running    atomic.Int64 // workers inside Work
	exited     atomic.Int64 // workers that consumed a Close
	done       chan struct{}

	logger              Logger
	metrics             Metrics
	panicHandler        PanicHandler
	rejectedTaskHandler RejectedTaskHandler
}

func newPoolState(id string, size int, config *ThreadPoolConfig) *PoolState {
	s := &PoolState{
		id:    id,
		name:  config.Name,
		size:  size,
		queue: newRunQueue(size),
		done:  make(chan struct{}),

		logger:              config.Logger,
		metrics:             config.Metrics,
		panicHandler:        config.PanicHandler,
		rejectedTaskHandler: config.RejectedTaskHandler,
	}
	s.handles.Store(1)
	return s
}

// Name returns the pool name used in logs and metrics.
func (s *PoolState) Name() string { return s.name }

// Size returns the fixed worker count.
func (s *PoolState) Size() int { return s.size }

// send enqueues a message. Anything sent after the Close fan-out is never serviced.
func (s *PoolState) send(m message) {
	s.queue.push(m)
	if m.kind == messageRun {
		s.metrics.RecordQueueDepth(s.name, s.queue.pendingRuns())
	}
}

// Work is the worker loop. It services Run messages until it receives a
// Close, then returns. Every execution context started by a provisioner must
// call it exactly once.
func (s *PoolState) Work(workerID int) {
	s.running.Add(1)
	defer func() {
		s.running.Add(-1)
		s.logger.Debug("worker yield", F("pool", s.name), F("worker", workerID))
		if s.exited.Add(1) == int64(s.size) {
			close(s.done)
		}
	}()

	s.logger.Debug("worker spawned", F("pool", s.name), F("worker", workerID))

	ctx := context.WithValue(context.Background(), workerIDKey, workerID)
	for s.handle(ctx, workerID, s.queue.pop()) {
	}
}

// handle processes one dequeued message and reports whether the worker keeps running.
func (s *PoolState) handle(ctx context.Context, workerID int, m message) bool {
	switch m.kind {
	case messageRun:
		m.task.run(s, ctx, workerID)
		return true
	case messageClose:
		return false
	default:
		panic(&InvariantViolation{Op: "dequeue", State: fmt.Sprintf("message kind %d", m.kind)})
	}
}

// close enqueues one Close per worker. Called exactly once, when the last
// handle is released or when provisioning fails.
func (s *PoolState) close() {
	s.closing.Store(true)
	s.logger.Debug("closing pool", F("pool", s.name), F("workers", s.size))
	for range s.size {
		s.queue.push(message{kind: messageClose})
	}
}

// Stats returns a point-in-time snapshot of the pool.
func (s *PoolState) Stats() PoolStats {
	return PoolStats{
		ID:      s.id,
		Name:    s.name,
		Workers: s.size,
		Queued:  s.queue.pendingRuns(),
		Active:  int(s.active.Load()),
		Parked:  int(s.parked.Load()),
		Live:    int(s.live.Load()),
		Handles: int(s.handles.Load()),
		Closing: s.closing.Load(),
		Running: int(s.running.Load()),
	}
}
