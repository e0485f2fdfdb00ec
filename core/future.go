package core

import "context"

// PollResult is the outcome of a single poll step.
type PollResult int

const (
	// Pending means the future cannot make progress yet. It must arrange for
	// the waker of the current PollContext to be called once it can.
	Pending PollResult = iota

	// Ready means the future has finished. It is never polled again.
	Ready
)

func (r PollResult) String() string {
	switch r {
	case Pending:
		return "Pending"
	case Ready:
		return "Ready"
	default:
		return "Unknown"
	}
}

// Waker signals that a future is ready to be polled again.
// Wake may be called any number of times, from any goroutine, at any time.
type Waker interface {
	Wake()
}

// WakerFunc adapts a plain function to the Waker interface.
type WakerFunc func()

// Wake calls f().
func (f WakerFunc) Wake() { f() }

// Future is a unit of work that is driven to completion by repeated polls.
//
// Poll must not block. A future that returns Pending is responsible for
// calling cx.Waker().Wake() (now or later, from any goroutine) when it is
// able to make progress; otherwise it is never polled again.
type Future interface {
	Poll(cx *PollContext) PollResult
}

// FutureFunc adapts a poll function to the Future interface.
type FutureFunc func(cx *PollContext) PollResult

// Poll calls f(cx).
func (f FutureFunc) Poll(cx *PollContext) PollResult { return f(cx) }

// PollContext is handed to a future for the duration of one poll step.
type PollContext struct {
	ctx   context.Context
	waker Waker
}

// NewPollContext builds a PollContext. It is exported for driving futures
// outside a pool, e.g. in tests of leaf futures.
func NewPollContext(ctx context.Context, waker Waker) *PollContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &PollContext{ctx: ctx, waker: waker}
}

// Waker returns the waker bound to the task being polled.
func (cx *PollContext) Waker() Waker {
	return cx.waker
}

// Context returns the context of the poll step. Inside a pool it carries the
// worker id and the task id.
func (cx *PollContext) Context() context.Context {
	return cx.ctx
}

// =============================================================================
// Context Helper
// =============================================================================

type workerIDKeyType struct{}
type taskIDKeyType struct{}

var (
	workerIDKey workerIDKeyType
	taskIDKey   taskIDKeyType
)

// WorkerIDFromContext returns the id of the worker polling the current task.
func WorkerIDFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(workerIDKey).(int)
	return id, ok
}

// TaskIDFromContext returns the id of the task being polled.
func TaskIDFromContext(ctx context.Context) (TaskID, bool) {
	id, ok := ctx.Value(taskIDKey).(TaskID)
	return id, ok
}
