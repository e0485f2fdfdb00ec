package core

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
)

// Spawner is implemented by executors that accept futures through a
// polymorphic entry point. A non-nil error is a *SpawnError.
type Spawner interface {
	SpawnObj(future Future) error
}

// ThreadPool is a counted handle to a pool of workers driving futures.
//
// Every handle must be released exactly once. When the last handle is
// released each worker receives one Close, after the Run messages already
// queued. Tasks do not hold handles: a task still parked or queued behind the
// Close messages is dropped without being polled again.
//
// A single handle must not be cloned or used concurrently with its own Release,
// and a released handle must not be cloned.
type ThreadPool struct {
	state    *PoolState
	released atomic.Bool
}

var _ Spawner = (*ThreadPool)(nil)

// NewThreadPool creates a pool with workerCount workers and default config.
func NewThreadPool(workerCount int) (*ThreadPool, error) {
	return NewThreadPoolWithConfig(workerCount, DefaultThreadPoolConfig())
}

// NewThreadPoolWithConfig creates a pool with workerCount workers started by
// config.Provisioner. When the provisioner fails, the workers that did start
// are told to exit and a *ProvisioningError is returned.
func NewThreadPoolWithConfig(workerCount int, config *ThreadPoolConfig) (*ThreadPool, error) {
	if workerCount < 1 {
		return nil, ErrInvalidWorkerCount
	}
	config = config.withDefaults()

	state := newPoolState(uuid.NewString(), workerCount, config)
	entry := func(s *PoolState, workerID int) { s.Work(workerID) }

	if err := config.Provisioner.Start(workerCount, entry, state); err != nil {
		state.close()
		state.logger.Error("failed to provision workers",
			F("pool", state.name), F("workers", workerCount), F("error", err))
		return nil, &ProvisioningError{Requested: workerCount, Err: err}
	}

	state.logger.Debug("pool created",
		F("pool", state.name), F("id", state.id), F("workers", workerCount))
	return &ThreadPool{state: state}, nil
}

// NewDefaultThreadPool creates a pool sized by the default parallelism hint.
func NewDefaultThreadPool() (*ThreadPool, error) {
	return NewDefaultThreadPoolWithConfig(DefaultThreadPoolConfig())
}

// NewDefaultThreadPoolWithConfig creates a pool with max(hint, 1) workers,
// where hint comes from config.ParallelismHint.
func NewDefaultThreadPoolWithConfig(config *ThreadPoolConfig) (*ThreadPool, error) {
	config = config.withDefaults()
	return NewThreadPoolWithConfig(clampParallelism(config.ParallelismHint.AvailableParallelism()), config)
}

// Spawn submits a future. It never fails on a live handle; on a released
// handle the future is dropped and reported to the RejectedTaskHandler.
func (p *ThreadPool) Spawn(future Future) {
	s := p.state
	if p.released.Load() {
		s.rejectedTaskHandler.HandleRejectedTask(s.name, "handle released")
		s.metrics.RecordTaskRejected(s.name, "handle released")
		return
	}

	task := newTask(s, future)
	s.live.Add(1)
	s.metrics.RecordTaskSpawned(s.name)
	s.send(message{kind: messageRun, task: task})
}

// SpawnFunc submits a poll function.
func (p *ThreadPool) SpawnFunc(poll func(cx *PollContext) PollResult) {
	p.Spawn(FutureFunc(poll))
}

// SpawnObj implements Spawner. It always returns nil.
func (p *ThreadPool) SpawnObj(future Future) error {
	p.Spawn(future)
	return nil
}

// Clone returns a new handle to the same pool.
func (p *ThreadPool) Clone() *ThreadPool {
	p.state.handles.Add(1)
	return &ThreadPool{state: p.state}
}

// Release drops this handle. Calling it more than once is a no-op.
func (p *ThreadPool) Release() {
	if !p.released.CompareAndSwap(false, true) {
		return
	}
	if p.state.handles.Add(-1) == 0 {
		p.state.close()
	}
}

// IsReleased reports whether Release has been called on this handle.
func (p *ThreadPool) IsReleased() bool {
	return p.released.Load()
}

// Shutdown releases this handle and waits until every worker has exited or
// ctx is done. Workers only exit once every handle has been released.
func (p *ThreadPool) Shutdown(ctx context.Context) error {
	p.Release()
	select {
	case <-p.state.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once every worker has exited.
func (p *ThreadPool) Done() <-chan struct{} {
	return p.state.done
}

// ID returns the unique id of the pool shared by all its handles.
func (p *ThreadPool) ID() string { return p.state.id }

// Name returns the configured pool name.
func (p *ThreadPool) Name() string { return p.state.name }

// WorkerCount returns the fixed number of workers.
func (p *ThreadPool) WorkerCount() int { return p.state.size }

// Stats returns a snapshot of the pool.
func (p *ThreadPool) Stats() PoolStats { return p.state.Stats() }
