package core

import "sync"

// lockState is the state of a taskLock.
//
// State machine:
//
//	Idle     → Polling          [startPoll, by the worker that dequeued the task]
//	Polling  → Parked(task)     [wait, future returned Pending]
//	Polling  → Repoll           [notify, wake raced with the poll]
//	Repoll   → Polling          [wait, the same worker polls again]
//	Parked   → Idle             [notify, task is re-enqueued]
//	any      → Complete         [complete, future returned Ready]
//
// Complete is absorbing.
type lockState uint8

const (
	stateIdle lockState = iota
	statePolling
	stateRepoll
	stateParked
	stateComplete
)

func (s lockState) String() string {
	switch s {
	case stateIdle:
		return "Idle"
	case statePolling:
		return "Polling"
	case stateRepoll:
		return "Repoll"
	case stateParked:
		return "Parked"
	case stateComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// WakeOutcome describes what a wake did to its task.
type WakeOutcome int

const (
	// WakeRescheduled means the task was parked and has been re-enqueued.
	WakeRescheduled WakeOutcome = iota
	// WakeRepoll means the task was being polled and will be polled again by the same worker.
	WakeRepoll
	// WakeIgnored means the task was already scheduled, already flagged, or complete.
	WakeIgnored
)

func (o WakeOutcome) String() string {
	switch o {
	case WakeRescheduled:
		return "rescheduled"
	case WakeRepoll:
		return "repoll"
	case WakeIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// taskLock arbitrates between the worker polling a task and goroutines
// waking it. The parked task is stored here and only here while Parked, so
// a *Task always has exactly one owner.
type taskLock struct {
	mu     sync.Mutex
	state  lockState
	parked *Task
}

// startPoll moves Idle to Polling. The caller must own the task.
func (l *taskLock) startPoll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != stateIdle {
		panic(&InvariantViolation{Op: "startPoll", State: l.state.String()})
	}
	l.state = statePolling
}

// wait is called by the polling worker after the future returned Pending.
// It returns nil when the task has been parked, or the task itself when a
// wake arrived during the poll and the caller must poll again.
func (l *taskLock) wait(task *Task) *Task {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case statePolling:
		l.state = stateParked
		l.parked = task
		return nil
	case stateRepoll:
		l.state = statePolling
		return task
	default:
		panic(&InvariantViolation{Op: "wait", State: l.state.String()})
	}
}

// notify records a wake. When the task was parked it is handed back to the
// caller, who becomes its owner and must re-enqueue it.
func (l *taskLock) notify() (*Task, WakeOutcome) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case stateParked:
		task := l.parked
		l.parked = nil
		l.state = stateIdle
		return task, WakeRescheduled
	case statePolling:
		l.state = stateRepoll
		return nil, WakeRepoll
	default:
		return nil, WakeIgnored
	}
}

// complete marks the task finished. Later wakes are no-ops.
func (l *taskLock) complete() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state = stateComplete
	l.parked = nil
}

func (l *taskLock) current() lockState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}
