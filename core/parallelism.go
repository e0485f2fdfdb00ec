package core

import (
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/automaxprocs/maxprocs"
)

// ParallelismHint reports how many workers the platform can run in parallel.
// The answer is best effort; pools clamp it to at least one.
type ParallelismHint interface {
	AvailableParallelism() int
}

// ParallelismHintFunc adapts a function to ParallelismHint.
type ParallelismHintFunc func() int

// AvailableParallelism calls f.
func (f ParallelismHintFunc) AvailableParallelism() int { return f() }

// RuntimeParallelism reports runtime.GOMAXPROCS(0).
type RuntimeParallelism struct{}

// AvailableParallelism returns the current GOMAXPROCS value.
func (RuntimeParallelism) AvailableParallelism() int {
	return clampParallelism(runtime.GOMAXPROCS(0))
}

// CgroupParallelism reports the CPU quota of the enclosing Linux container,
// as computed by go.uber.org/automaxprocs, without changing GOMAXPROCS for
// longer than the call. Outside a container, or when the quota cannot be
// read, it reports runtime.NumCPU().
type CgroupParallelism struct {
	// Logger receives the automaxprocs diagnostics at debug level. Optional.
	Logger Logger
}

// maxprocs.Set mutates process state; serialize the probe.
var cgroupProbeMu sync.Mutex

// AvailableParallelism probes the container CPU quota.
func (c CgroupParallelism) AvailableParallelism() int {
	cgroupProbeMu.Lock()
	defer cgroupProbeMu.Unlock()

	logger := c.Logger
	if logger == nil {
		logger = NewNoOpLogger()
	}

	undo, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		logger.Debug(fmt.Sprintf(format, args...))
	}))
	defer undo()

	if err != nil {
		logger.Debug("cgroup quota unavailable", F("error", err))
		return clampParallelism(runtime.NumCPU())
	}
	return clampParallelism(runtime.GOMAXPROCS(0))
}

// clampParallelism maps any hint below one to one.
func clampParallelism(n int) int {
	return max(n, 1)
}
