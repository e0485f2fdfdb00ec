package core

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// PanicHandler: Interface for handling future panics
// =============================================================================

// PanicHandler is called when a future panics inside Poll.
// The task is completed afterwards and never polled again; the worker keeps running.
//
// Implementations should be thread-safe as they may be called concurrently.
type PanicHandler interface {
	// HandlePanic is called when a future panics.
	//
	// Parameters:
	// - ctx: The poll context (carries the worker id and task id)
	// - poolName: The name of the pool where the panic occurred
	// - workerID: The ID of the worker that was polling
	// - panicInfo: The panic value recovered from the future
	// - stackTrace: The stack trace at the time of panic
	HandlePanic(ctx context.Context, poolName string, workerID int, panicInfo any, stackTrace []byte)
}

// DefaultPanicHandler logs the panic through the global zap logger.
type DefaultPanicHandler struct{}

// HandlePanic logs panic information at error level.
func (h *DefaultPanicHandler) HandlePanic(ctx context.Context, poolName string, workerID int, panicInfo any, stackTrace []byte) {
	fields := []zap.Field{
		zap.String("pool", poolName),
		zap.Int("worker", workerID),
		zap.Any("panic", panicInfo),
		zap.ByteString("stack", stackTrace),
	}
	if id, ok := TaskIDFromContext(ctx); ok {
		fields = append(fields, zap.Uint64("task", uint64(id)))
	}
	zap.L().Error("future panicked", fields...)
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting executor metrics.
// Implementations can send metrics to monitoring systems (Prometheus, OpenTelemetry, etc.).
//
// Methods are called from workers and wakers on the hot path; they should be
// non-blocking and fast.
type Metrics interface {
	// RecordTaskSpawned records that a future was accepted by a pool.
	RecordTaskSpawned(poolName string)

	// RecordPoll records how long one poll step took.
	RecordPoll(poolName string, duration time.Duration)

	// RecordRepoll records that a wake raced with a poll and the same worker polled again.
	RecordRepoll(poolName string)

	// RecordWake records a call to a task's waker and what it did.
	RecordWake(poolName string, outcome WakeOutcome)

	// RecordTaskCompleted records that a future returned Ready.
	RecordTaskCompleted(poolName string)

	// RecordTaskPanic records that a future panicked during Poll.
	RecordTaskPanic(poolName string, panicInfo any)

	// RecordQueueDepth records the number of queued Run messages after an enqueue.
	RecordQueueDepth(poolName string, depth int)

	// RecordTaskRejected records that a spawn was rejected (e.g., released handle).
	//
	// Parameters:
	// - poolName: The name of the pool
	// - reason: Why the task was rejected
	RecordTaskRejected(poolName string, reason string)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

func (m *NilMetrics) RecordTaskSpawned(poolName string)                  {}
func (m *NilMetrics) RecordPoll(poolName string, duration time.Duration) {}
func (m *NilMetrics) RecordRepoll(poolName string)                       {}
func (m *NilMetrics) RecordWake(poolName string, outcome WakeOutcome)    {}
func (m *NilMetrics) RecordTaskCompleted(poolName string)                {}
func (m *NilMetrics) RecordTaskPanic(poolName string, panicInfo any)     {}
func (m *NilMetrics) RecordQueueDepth(poolName string, depth int)        {}
func (m *NilMetrics) RecordTaskRejected(poolName string, reason string)  {}

// =============================================================================
// RejectedTaskHandler: Interface for handling rejected tasks
// =============================================================================

// RejectedTaskHandler is called when a pool refuses a future.
// This happens when Spawn is called on a handle that has already been released.
//
// Implementations should be thread-safe as they may be called concurrently.
type RejectedTaskHandler interface {
	HandleRejectedTask(poolName string, reason string)
}

// DefaultRejectedTaskHandler logs rejected tasks through the global zap logger.
type DefaultRejectedTaskHandler struct{}

// HandleRejectedTask logs the rejected task at warn level.
func (h *DefaultRejectedTaskHandler) HandleRejectedTask(poolName string, reason string) {
	zap.L().Warn("task rejected", zap.String("pool", poolName), zap.String("reason", reason))
}

// =============================================================================
// ThreadPoolConfig: Configuration for ThreadPool
// =============================================================================

// DefaultPoolName is used when ThreadPoolConfig.Name is empty.
const DefaultPoolName = "futurepool"

// ThreadPoolConfig holds configuration options for ThreadPool.
// All fields are optional; if not provided, default implementations will be used.
type ThreadPoolConfig struct {
	// Name labels logs and metrics. Defaults to DefaultPoolName.
	Name string

	// Provisioner starts the worker execution contexts. Defaults to GoroutineProvisioner{}.
	Provisioner WorkerProvisioner

	// ParallelismHint sizes pools created with NewDefaultThreadPool. Defaults to RuntimeParallelism{}.
	ParallelismHint ParallelismHint

	// Logger receives lifecycle logs. Defaults to NewDefaultLogger().
	Logger Logger

	// PanicHandler is called when a future panics. Defaults to DefaultPanicHandler.
	PanicHandler PanicHandler

	// Metrics is called to record executor metrics. Defaults to NilMetrics.
	Metrics Metrics

	// RejectedTaskHandler is called when a spawn is rejected. Defaults to DefaultRejectedTaskHandler.
	RejectedTaskHandler RejectedTaskHandler
}

// DefaultThreadPoolConfig returns a config with default handlers.
func DefaultThreadPoolConfig() *ThreadPoolConfig {
	return &ThreadPoolConfig{
		Name:                DefaultPoolName,
		Provisioner:         &GoroutineProvisioner{},
		ParallelismHint:     RuntimeParallelism{},
		Logger:              NewDefaultLogger(),
		PanicHandler:        &DefaultPanicHandler{},
		Metrics:             &NilMetrics{},
		RejectedTaskHandler: &DefaultRejectedTaskHandler{},
	}
}

// withDefaults returns a copy of config with every nil field filled in.
func (config *ThreadPoolConfig) withDefaults() *ThreadPoolConfig {
	defaults := DefaultThreadPoolConfig()
	if config == nil {
		return defaults
	}

	c := *config
	if c.Name == "" {
		c.Name = defaults.Name
	}
	if c.Provisioner == nil {
		c.Provisioner = defaults.Provisioner
	}
	if c.ParallelismHint == nil {
		c.ParallelismHint = defaults.ParallelismHint
	}
	if c.Logger == nil {
		c.Logger = defaults.Logger
	}
	if c.PanicHandler == nil {
		c.PanicHandler = defaults.PanicHandler
	}
	if c.Metrics == nil {
		c.Metrics = defaults.Metrics
	}
	if c.RejectedTaskHandler == nil {
		c.RejectedTaskHandler = defaults.RejectedTaskHandler
	}
	return &c
}
