package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Swind/go-future-pool/core"
	"github.com/Swind/go-future-pool/futures"
	promexporter "github.com/Swind/go-future-pool/observability/prometheus"
	"github.com/fatih/color"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func createRunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "spawn self-waking futures and verify exactly-once completion and mutual exclusion",
		Flags: runFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			restore := zap.ReplaceGlobals(logger)
			defer restore()

			result, err := runBench(ctx, cfg, logger)
			if err != nil {
				return err
			}

			printSummary(cmd.Root().Writer, result)
			if !result.ok() {
				return &exitError{code: 1}
			}
			return nil
		},
	}
}

// benchResult is the outcome of one run.
type benchResult struct {
	Workers       int
	Tasks         int
	Completed     int64
	Polls         int64
	ExpectedPolls int64
	Violations    int64
	Elapsed       time.Duration
}

func (r benchResult) ok() bool {
	return r.Completed == int64(r.Tasks) && r.Violations == 0 && r.Polls == r.ExpectedPolls
}

// guarded wraps a future and counts polls that overlap another poll of the same task.
type guarded struct {
	inner      core.Future
	inPoll     atomic.Bool
	polls      *atomic.Int64
	violations *atomic.Int64
}

func (g *guarded) Poll(cx *core.PollContext) core.PollResult {
	if !g.inPoll.CompareAndSwap(false, true) {
		g.violations.Add(1)
	}
	defer g.inPoll.Store(false)

	g.polls.Add(1)
	return g.inner.Poll(cx)
}

func runBench(ctx context.Context, cfg *benchConfig, logger *zap.Logger) (benchResult, error) {
	reg := prom.NewRegistry()
	exporter, err := promexporter.NewMetricsExporter("futurepool", reg, promexporter.ExporterOptions{})
	if err != nil {
		return benchResult{}, fmt.Errorf("create metrics exporter: %w", err)
	}

	poolConfig := &core.ThreadPoolConfig{
		Name:    cfg.PoolName,
		Logger:  core.NewZapLogger(logger.Named("pool")),
		Metrics: exporter,
	}
	if cfg.CgroupAware {
		poolConfig.ParallelismHint = core.CgroupParallelism{Logger: poolConfig.Logger}
	}

	var pool *core.ThreadPool
	if cfg.Workers == 0 {
		pool, err = core.NewDefaultThreadPoolWithConfig(poolConfig)
	} else {
		pool, err = core.NewThreadPoolWithConfig(cfg.Workers, poolConfig)
	}
	if err != nil {
		return benchResult{}, fmt.Errorf("create pool: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()
		if err := pool.Shutdown(shutdownCtx); err != nil {
			logger.Warn("pool did not stop", zap.Error(err))
		}
	}()

	if cfg.MetricsAddr != "" {
		stopServer, err := serveMetrics(ctx, cfg.MetricsAddr, reg, pool, logger)
		if err != nil {
			return benchResult{}, err
		}
		defer stopServer()
	}

	logger.Info("starting run",
		zap.String("pool", pool.Name()),
		zap.Int("workers", pool.WorkerCount()),
		zap.Int("tasks", cfg.Tasks),
		zap.Int("wakes", cfg.Wakes))

	var polls, violations, completed atomic.Int64
	var wg sync.WaitGroup
	wg.Add(cfg.Tasks)

	start := time.Now()
	for range cfg.Tasks {
		pool.Spawn(&guarded{
			inner: futures.Sequence(
				futures.Yield(cfg.Wakes),
				futures.Run(func(context.Context) {
					completed.Add(1)
					wg.Done()
				}),
			),
			polls:      &polls,
			violations: &violations,
		})
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	timeout := time.NewTimer(cfg.Timeout)
	defer timeout.Stop()

	result := benchResult{
		Workers:       pool.WorkerCount(),
		Tasks:         cfg.Tasks,
		ExpectedPolls: int64(cfg.Tasks) * int64(cfg.Wakes+1),
	}

	select {
	case <-finished:
	case <-timeout.C:
		logger.Error("run timed out", zap.Duration("timeout", cfg.Timeout), zap.Any("stats", pool.Stats()))
	case <-ctx.Done():
		return benchResult{}, ctx.Err()
	}

	result.Elapsed = time.Since(start)
	result.Completed = completed.Load()
	result.Polls = polls.Load()
	result.Violations = violations.Load()

	logger.Info("run finished",
		zap.Int64("completed", result.Completed),
		zap.Int64("polls", result.Polls),
		zap.Int64("violations", result.Violations),
		zap.Duration("elapsed", result.Elapsed))
	return result, nil
}

// serveMetrics exposes reg on addr together with pool snapshot gauges.
// The returned function stops the server and the poller.
func serveMetrics(ctx context.Context, addr string, reg *prom.Registry, pool *core.ThreadPool, logger *zap.Logger) (func(), error) {
	poller, err := promexporter.NewSnapshotPoller(reg, time.Second)
	if err != nil {
		return nil, fmt.Errorf("create snapshot poller: %w", err)
	}
	poller.AddPool(pool.Name(), pool)
	poller.Start(ctx)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		poller.Stop()
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	served := make(chan struct{})
	go func() {
		defer close(served)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		<-served
		poller.Stop()
	}, nil
}

func printSummary(w io.Writer, r benchResult) {
	status := color.New(color.FgGreen, color.Bold).Sprint("PASS")
	if !r.ok() {
		status = color.New(color.FgRed, color.Bold).Sprint("FAIL")
	}

	fmt.Fprintf(w, "%s  workers=%d tasks=%d\n", status, r.Workers, r.Tasks)
	fmt.Fprintf(w, "  completed   %d/%d\n", r.Completed, r.Tasks)
	fmt.Fprintf(w, "  polls       %d (expected %d)\n", r.Polls, r.ExpectedPolls)

	violations := fmt.Sprintf("%d", r.Violations)
	if r.Violations > 0 {
		violations = color.RedString(violations)
	}
	fmt.Fprintf(w, "  violations  %s\n", violations)

	rate := 0.0
	if r.Elapsed > 0 {
		rate = float64(r.Polls) / r.Elapsed.Seconds()
	}
	fmt.Fprintf(w, "  elapsed     %s (%.0f polls/s)\n", r.Elapsed.Round(time.Microsecond), rate)
}
