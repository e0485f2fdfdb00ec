package futurepool

import "github.com/Swind/go-future-pool/core"

// New creates a pool with the given number of workers.
func New(workers int) (*ThreadPool, error) {
	return core.NewThreadPool(workers)
}

// NewWithConfig creates a pool with the given number of workers and hooks.
func NewWithConfig(workers int, config *ThreadPoolConfig) (*ThreadPool, error) {
	return core.NewThreadPoolWithConfig(workers, config)
}

// NewDefault creates a pool sized by runtime.GOMAXPROCS(0).
func NewDefault() (*ThreadPool, error) {
	return core.NewDefaultThreadPool()
}

// NewDefaultWithConfig creates a pool sized by config.ParallelismHint.
func NewDefaultWithConfig(config *ThreadPoolConfig) (*ThreadPool, error) {
	return core.NewDefaultThreadPoolWithConfig(config)
}
