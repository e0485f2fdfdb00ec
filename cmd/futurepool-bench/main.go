// futurepool-bench drives a futurepool ThreadPool with self-waking futures
// and checks the executor guarantees while it runs.
//
// Usage:
//
//	futurepool-bench run [options]
//
// Options:
//
//	--workers N        worker count, 0 sizes the pool from the parallelism hint (default 0)
//	--tasks N          number of futures to spawn (default 1000)
//	--wakes N          Pending+wake rounds per future before it completes (default 10)
//	--cgroup-aware     size the default pool from the container CPU quota
//	--metrics-addr A   serve Prometheus metrics on A while the run lasts
//	--log-level L      debug, info, warn or error (default info)
//	--timeout D        give up after D (default 30s)
//
// Exit codes:
//
//	0: every future completed exactly once and no poll overlapped
//	1: a check failed or the run timed out
//	2: invalid arguments
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

// Build information, injected with -ldflags.
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run(os.Args))
}

func createApp() *cli.Command {
	return &cli.Command{
		Name:    "futurepool-bench",
		Usage:   "exercise a futurepool ThreadPool and verify its scheduling guarantees",
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Commands: []*cli.Command{
			createRunCommand(),
		},
		// Exit codes are mapped in run, never by the framework.
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(os.Stderr, err)
			}
		},
	}
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return exitCode(createApp().Run(ctx, args))
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(os.Stderr, "invalid arguments: %v\n", usageErr)
		return 2
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	return 1
}
