package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidWorkerCount is returned when a pool is created with fewer than one worker.
	ErrInvalidWorkerCount = errors.New("futurepool: worker count must be positive")

	// ErrSpawnShutdown is the reason carried by a SpawnError when the executor is shut down.
	ErrSpawnShutdown = errors.New("futurepool: executor is shut down")
)

// ProvisioningError reports that the worker provisioner could not start the
// requested number of execution contexts.
type ProvisioningError struct {
	Requested int
	Err       error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("futurepool: failed to provision %d workers: %v", e.Requested, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

// SpawnError is returned by Spawner implementations that can refuse a future.
// ThreadPool never returns one.
type SpawnError struct {
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("futurepool: spawn failed: %v", e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// IsShutdown reports whether the spawn failed because the executor is shut down.
func (e *SpawnError) IsShutdown() bool {
	return errors.Is(e.Err, ErrSpawnShutdown)
}

// InvariantViolation is the panic value raised when the scheduler detects a
// broken internal invariant, e.g. an illegal task lock transition. Continuing
// after one could poll a future from two workers at once, so it is never
// recovered by the pool.
type InvariantViolation struct {
	Op    string
	State string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("futurepool: invariant violated: %s in state %s", e.Op, e.State)
}
