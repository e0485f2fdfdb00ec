package core

import (
	"context"
	"runtime/debug"
	"time"
)

// TaskID identifies a spawned future within its pool.
type TaskID uint64

// Task is a spawned future together with the bookkeeping needed to drive it.
//
// A *Task has exactly one owner at any instant: the run queue, the worker
// currently driving it, or its taskLock while parked.
type Task struct {
	id     TaskID
	future Future
	wake   *wakeHandle
}

// ID returns the task id.
func (t *Task) ID() TaskID {
	return t.id
}

func newTask(state *PoolState, future Future) *Task {
	id := TaskID(state.nextTaskID.Add(1))
	t := &Task{id: id, future: future}
	t.wake = &wakeHandle{pool: state, id: id}
	return t
}

// wakeHandle is the Waker handed to a task's future. It keeps an uncounted
// reference to the pool: waking a task never keeps the pool alive.
type wakeHandle struct {
	lock taskLock
	pool *PoolState
	id   TaskID
}

// Wake makes the task runnable again. Safe from any goroutine, any number of times.
func (w *wakeHandle) Wake() {
	task, outcome := w.lock.notify()
	w.pool.metrics.RecordWake(w.pool.name, outcome)

	if task != nil {
		w.pool.parked.Add(-1)
		w.pool.send(message{kind: messageRun, task: task})
	}
}

// run drives the task once on behalf of a worker. It returns when the future
// completes or parks; a wake that raced with the poll makes it poll again
// without going through the run queue.
func (t *Task) run(state *PoolState, workerCtx context.Context, workerID int) {
	state.active.Add(1)
	defer state.active.Add(-1)

	t.wake.lock.startPoll()
	cx := NewPollContext(context.WithValue(workerCtx, taskIDKey, t.id), t.wake)

	for {
		result, panicked := t.pollOnce(state, cx, workerID)
		if panicked || result == Ready {
			t.wake.lock.complete()
			t.future = nil
			state.live.Add(-1)
			if !panicked {
				state.metrics.RecordTaskCompleted(state.name)
			}
			return
		}

		// Counted before parking: once wait returns nil another worker may
		// already own the task.
		state.parked.Add(1)
		if t.wake.lock.wait(t) == nil {
			return
		}
		state.parked.Add(-1)
		state.metrics.RecordRepoll(state.name)
	}
}

// pollOnce polls the future and recovers a panic raised by it.
func (t *Task) pollOnce(state *PoolState, cx *PollContext, workerID int) (result PollResult, panicked bool) {
	start := time.Now()
	defer func() {
		state.metrics.RecordPoll(state.name, time.Since(start))
		if r := recover(); r != nil {
			if iv, ok := r.(*InvariantViolation); ok {
				panic(iv)
			}
			panicked = true
			state.panicHandler.HandlePanic(cx.Context(), state.name, workerID, r, debug.Stack())
			state.metrics.RecordTaskPanic(state.name, r)
		}
	}()

	return t.future.Poll(cx), false
}
