// Package otel exports futurepool executor metrics through OpenTelemetry.
package otel

import (
	"context"
	"fmt"
	"time"

	"github.com/Swind/go-future-pool/core"
	otelglobal "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const defaultInstrumentationName = "github.com/Swind/go-future-pool"

type config struct {
	instrumentationName string
	meterProvider       metric.MeterProvider
}

// Option configures a MetricsExporter.
type Option func(*config)

// WithInstrumentationName sets the instrumentation scope name.
func WithInstrumentationName(name string) Option {
	return func(cfg *config) {
		if name != "" {
			cfg.instrumentationName = name
		}
	}
}

// WithMeterProvider sets the MeterProvider. Defaults to the global provider.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(cfg *config) {
		if provider != nil {
			cfg.meterProvider = provider
		}
	}
}

// MetricsExporter adapts core.Metrics to OpenTelemetry instruments.
type MetricsExporter struct {
	spawned      metric.Int64Counter
	completed    metric.Int64Counter
	panicked     metric.Int64Counter
	rejected     metric.Int64Counter
	repolls      metric.Int64Counter
	wakes        metric.Int64Counter
	pollDuration metric.Float64Histogram
	queueDepth   metric.Int64Gauge
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates the instruments on the configured meter.
func NewMetricsExporter(opts ...Option) (*MetricsExporter, error) {
	cfg := &config{
		instrumentationName: defaultInstrumentationName,
		meterProvider:       otelglobal.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	meter := cfg.meterProvider.Meter(cfg.instrumentationName)

	m := &MetricsExporter{}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.spawned, "futurepool.tasks.spawned", "futures accepted by the pool"},
		{&m.completed, "futurepool.tasks.completed", "futures that returned Ready"},
		{&m.panicked, "futurepool.tasks.panicked", "futures that panicked during Poll"},
		{&m.rejected, "futurepool.tasks.rejected", "rejected spawns"},
		{&m.repolls, "futurepool.repolls", "polls repeated because a wake arrived during the poll"},
		{&m.wakes, "futurepool.wakes", "wakes by outcome"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit("1"))
		if err != nil {
			return nil, fmt.Errorf("futurepool/otel: create counter %s failed: %w", c.name, err)
		}
	}

	m.pollDuration, err = meter.Float64Histogram(
		"futurepool.poll.duration",
		metric.WithDescription("duration of a single poll step"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("futurepool/otel: create histogram failed: %w", err)
	}

	m.queueDepth, err = meter.Int64Gauge(
		"futurepool.queue.depth",
		metric.WithDescription("run messages queued after the latest enqueue"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("futurepool/otel: create gauge failed: %w", err)
	}

	return m, nil
}

func poolAttr(poolName string) attribute.KeyValue {
	if poolName == "" {
		poolName = "unknown"
	}
	return attribute.String("pool", poolName)
}

// RecordTaskSpawned records an accepted future.
func (m *MetricsExporter) RecordTaskSpawned(poolName string) {
	if m == nil {
		return
	}
	m.spawned.Add(context.Background(), 1, metric.WithAttributes(poolAttr(poolName)))
}

// RecordPoll records the duration of one poll step.
func (m *MetricsExporter) RecordPoll(poolName string, duration time.Duration) {
	if m == nil {
		return
	}
	m.pollDuration.Record(context.Background(), duration.Seconds(), metric.WithAttributes(poolAttr(poolName)))
}

// RecordRepoll records an immediate repoll.
func (m *MetricsExporter) RecordRepoll(poolName string) {
	if m == nil {
		return
	}
	m.repolls.Add(context.Background(), 1, metric.WithAttributes(poolAttr(poolName)))
}

// RecordWake records a wake and its outcome.
func (m *MetricsExporter) RecordWake(poolName string, outcome core.WakeOutcome) {
	if m == nil {
		return
	}
	m.wakes.Add(context.Background(), 1, metric.WithAttributes(
		poolAttr(poolName),
		attribute.String("outcome", outcome.String()),
	))
}

// RecordTaskCompleted records a future that returned Ready.
func (m *MetricsExporter) RecordTaskCompleted(poolName string) {
	if m == nil {
		return
	}
	m.completed.Add(context.Background(), 1, metric.WithAttributes(poolAttr(poolName)))
}

// RecordTaskPanic records a future that panicked.
func (m *MetricsExporter) RecordTaskPanic(poolName string, panicInfo any) {
	if m == nil {
		return
	}
	m.panicked.Add(context.Background(), 1, metric.WithAttributes(poolAttr(poolName)))
}

// RecordQueueDepth records queue depth.
func (m *MetricsExporter) RecordQueueDepth(poolName string, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.Record(context.Background(), int64(depth), metric.WithAttributes(poolAttr(poolName)))
}

// RecordTaskRejected records a rejected spawn.
func (m *MetricsExporter) RecordTaskRejected(poolName string, reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.rejected.Add(context.Background(), 1, metric.WithAttributes(
		poolAttr(poolName),
		attribute.String("reason", reason),
	))
}
