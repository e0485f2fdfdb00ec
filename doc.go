// Package futurepool is a thread pool executor for poll-based futures.
//
// A future is any value with a Poll method. Poll either finishes the work
// (Ready) or arranges for the task's Waker to be called later and returns
// Pending. The pool multiplexes any number of such tasks onto a fixed set of
// long-lived worker goroutines that share one FIFO run queue.
//
// # Quick Start
//
//	pool, err := futurepool.New(4)
//	if err != nil {
//		return err
//	}
//	defer pool.Shutdown(context.Background())
//
//	pool.Spawn(futures.Sequence(
//		futures.Sleep(100*time.Millisecond),
//		futures.Run(func(ctx context.Context) {
//			fmt.Println("done")
//		}),
//	))
//
// # Key Concepts
//
// ThreadPool: A counted handle. Clone adds a handle, Release drops one. When
// the last handle is released each worker receives one Close message behind
// any work already queued, then exits. Tasks themselves do not keep the pool
// alive; a task still waiting for a wake at that point is dropped.
//
// Waker: Handed to the future through PollContext.Waker. It may be called
// from any goroutine, any number of times. A wake that arrives while the task
// is being polled is never lost: the same worker polls the task again as soon
// as the current poll returns Pending. Wakes after completion are ignored.
//
// WorkerProvisioner and ParallelismHint: Pluggable ways to start workers and
// to size pools created with NewDefault. The defaults are one goroutine per
// worker and runtime.GOMAXPROCS(0); CgroupParallelism reads the container CPU
// quota instead.
//
// # Guarantees
//
// A task is polled by at most one worker at a time, and successive polls of
// one task are totally ordered. A future that returned Ready is never polled
// again. A panic inside Poll is recovered, reported to the PanicHandler, and
// completes the task; the worker keeps running.
//
// Observability hooks (Logger, Metrics, PanicHandler, RejectedTaskHandler)
// are configured through ThreadPoolConfig. Exporters for Prometheus and
// OpenTelemetry live under observability/.
package futurepool
