package core

import (
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// WorkerEntry is the function every provisioned execution context must run.
// The pool passes (*PoolState).Work bound to a worker id.
type WorkerEntry func(state *PoolState, workerID int)

// WorkerProvisioner starts the long-lived execution contexts of a pool.
//
// Start must start exactly workerCount contexts, each calling entry once with
// state and a distinct worker id in [0, workerCount). It returns an error
// when one or more contexts could not be started; contexts that did start
// keep running entry and are torn down by the pool.
type WorkerProvisioner interface {
	Start(workerCount int, entry WorkerEntry, state *PoolState) error
}

// WorkerProvisionerFunc adapts a function to WorkerProvisioner.
type WorkerProvisionerFunc func(workerCount int, entry WorkerEntry, state *PoolState) error

// Start calls f.
func (f WorkerProvisionerFunc) Start(workerCount int, entry WorkerEntry, state *PoolState) error {
	return f(workerCount, entry, state)
}

// GoroutineProvisioner runs each worker on its own goroutine.
type GoroutineProvisioner struct {
	// LockOSThread pins every worker goroutine to its own OS thread.
	LockOSThread bool

	// OnWorkerStart runs on the worker goroutine before it enters the worker
	// loop. A non-nil error stops that worker and fails the pool creation.
	OnWorkerStart func(workerID int) error
}

// Start launches workerCount goroutines and waits until every one of them has
// either entered its start hook successfully or failed it.
func (p *GoroutineProvisioner) Start(workerCount int, entry WorkerEntry, state *PoolState) error {
	errs := make([]error, workerCount)

	var g errgroup.Group
	for i := range workerCount {
		ready := make(chan error, 1)
		go p.worker(i, entry, state, ready)

		g.Go(func() error {
			if err := <-ready; err != nil {
				errs[i] = fmt.Errorf("worker %d: %w", i, err)
				return errs[i]
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return errors.Join(errs...)
	}
	return nil
}

func (p *GoroutineProvisioner) worker(workerID int, entry WorkerEntry, state *PoolState, ready chan<- error) {
	if p.LockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}

	if p.OnWorkerStart != nil {
		if err := p.OnWorkerStart(workerID); err != nil {
			ready <- err
			return
		}
	}
	ready <- nil

	entry(state, workerID)
}
