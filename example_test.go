package futurepool_test

import (
	"context"
	"fmt"

	futurepool "github.com/Swind/go-future-pool"
	"github.com/Swind/go-future-pool/futures"
)

// ExampleNew demonstrates spawning futures with only one import.
func ExampleNew() {
	pool, err := futurepool.New(2)
	if err != nil {
		panic(err)
	}
	defer pool.Shutdown(context.Background())

	done := make(chan struct{})
	polls := 0
	pool.Spawn(futurepool.FutureFunc(func(cx *futurepool.PollContext) futurepool.PollResult {
		polls++
		if polls < 3 {
			cx.Waker().Wake()
			return futurepool.Pending
		}
		fmt.Println("polled", polls, "times")
		close(done)
		return futurepool.Ready
	}))

	<-done

	// Output:
	// polled 3 times
}

// ExampleThreadPool_Clone demonstrates sharing a pool between owners.
func ExampleThreadPool_Clone() {
	pool, err := futurepool.New(1)
	if err != nil {
		panic(err)
	}
	worker := pool.Clone()
	pool.Release()

	sig := futures.NewSignal()
	done := make(chan struct{})
	worker.Spawn(futures.Sequence(
		sig.Wait(),
		futures.Run(func(ctx context.Context) {
			fmt.Println("signal received")
			close(done)
		}),
	))

	sig.Fire()
	<-done

	fmt.Println("handles:", worker.Stats().Handles)
	_ = worker.Shutdown(context.Background())
	fmt.Println("workers running:", worker.Stats().Running)

	// Output:
	// signal received
	// handles: 1
	// workers running: 0
}
