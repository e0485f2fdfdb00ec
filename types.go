package futurepool

import "github.com/Swind/go-future-pool/core"

// Re-export commonly used types from core package for convenience.
// This allows users to import only the futurepool package for most use cases.

// Future is a unit of work driven to completion by repeated polls
type Future = core.Future

// FutureFunc adapts a poll function to Future
type FutureFunc = core.FutureFunc

// PollResult is the outcome of a single poll step
type PollResult = core.PollResult

// PollContext is handed to a future for the duration of one poll step
type PollContext = core.PollContext

// Waker signals that a future is ready to be polled again
type Waker = core.Waker

// WakerFunc adapts a plain function to Waker
type WakerFunc = core.WakerFunc

// ThreadPool is a counted handle to a pool of workers
type ThreadPool = core.ThreadPool

// ThreadPoolConfig holds the optional hooks of a pool
type ThreadPoolConfig = core.ThreadPoolConfig

// Spawner is the polymorphic spawn entry point
type Spawner = core.Spawner

// PoolStats is a point-in-time snapshot of a pool
type PoolStats = core.PoolStats

// TaskID identifies a spawned future within its pool
type TaskID = core.TaskID

// Provisioning and sizing
type (
	WorkerProvisioner    = core.WorkerProvisioner
	GoroutineProvisioner = core.GoroutineProvisioner
	ParallelismHint      = core.ParallelismHint
	ParallelismHintFunc  = core.ParallelismHintFunc
	RuntimeParallelism   = core.RuntimeParallelism
	CgroupParallelism    = core.CgroupParallelism
)

// Errors
type (
	ProvisioningError  = core.ProvisioningError
	SpawnError         = core.SpawnError
	InvariantViolation = core.InvariantViolation
)

// Poll results
const (
	Pending PollResult = core.Pending
	Ready   PollResult = core.Ready
)

var (
	ErrInvalidWorkerCount = core.ErrInvalidWorkerCount
	ErrSpawnShutdown      = core.ErrSpawnShutdown
)

// Context helpers
var (
	WorkerIDFromContext = core.WorkerIDFromContext
	TaskIDFromContext   = core.TaskIDFromContext
)

// DefaultConfig returns a config with default handlers.
var DefaultConfig = core.DefaultThreadPoolConfig
