package main

import (
	"context"
	"fmt"
	"time"

	futurepool "github.com/Swind/go-future-pool"
	"github.com/Swind/go-future-pool/futures"
)

func main() {
	// 1. Create a pool sized from GOMAXPROCS
	pool, err := futurepool.NewDefault()
	if err != nil {
		panic(err)
	}
	defer pool.Release()

	fmt.Println("=== Basic Sequence Example ===")

	done := make(chan struct{})

	// 2. Spawn one future made of several steps.
	// Steps run in order; the worker is free while the sleep is pending.
	pool.Spawn(futures.Sequence(
		futures.Run(func(ctx context.Context) {
			id, _ := futurepool.TaskIDFromContext(ctx)
			fmt.Printf("Step 1 of task %d\n", id)
		}),
		futures.Sleep(300*time.Millisecond),
		futures.Run(func(ctx context.Context) {
			worker, _ := futurepool.WorkerIDFromContext(ctx)
			fmt.Printf("Step 2 after sleeping, on worker %d\n", worker)
		}),
		futures.Run(func(context.Context) {
			close(done)
		}),
	))

	<-done
	fmt.Println("=== Example Finished ===")
}
