package core

// PoolStats represents runtime observability state for a thread pool.
type PoolStats struct {
	ID      string
	Name    string
	Workers int  // fixed worker count
	Queued  int  // Run messages waiting in the run queue
	Active  int  // tasks being driven by a worker
	Parked  int  // tasks waiting for a wake
	Live    int  // spawned tasks not yet complete
	Handles int  // live pool handles
	Closing bool // last handle released, Close messages enqueued
	Running int  // workers that have not exited
}
