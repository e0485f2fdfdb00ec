package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/Swind/go-future-pool/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	// PollBuckets are the histogram buckets of poll durations, in seconds.
	PollBuckets []float64
}

// DefaultPollBuckets suit poll steps, which are expected to be short.
var DefaultPollBuckets = prom.ExponentialBuckets(0.000001, 4, 12)

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	tasksSpawnedTotal   *prom.CounterVec
	tasksCompletedTotal *prom.CounterVec
	taskPanicTotal      *prom.CounterVec
	taskRejectedTotal   *prom.CounterVec
	pollDurationSeconds *prom.HistogramVec
	repollTotal         *prom.CounterVec
	wakeTotal           *prom.CounterVec
	queueDepth          *prom.GaugeVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "futurepool"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.PollBuckets
	if len(buckets) == 0 {
		buckets = DefaultPollBuckets
	}

	spawnedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_spawned_total",
		Help:      "Total number of futures accepted by the pool.",
	}, []string{"pool"})
	completedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_completed_total",
		Help:      "Total number of futures that returned Ready.",
	}, []string{"pool"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_panic_total",
		Help:      "Total number of futures that panicked during Poll.",
	}, []string{"pool"})
	rejectedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_rejected_total",
		Help:      "Total number of rejected spawns.",
	}, []string{"pool", "reason"})
	pollVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "poll_duration_seconds",
		Help:      "Duration of a single poll step in seconds.",
		Buckets:   buckets,
	}, []string{"pool"})
	repollVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "repoll_total",
		Help:      "Total number of polls repeated because a wake arrived during the poll.",
	}, []string{"pool"})
	wakeVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "wake_total",
		Help:      "Total number of wakes by outcome.",
	}, []string{"pool", "outcome"})
	queueDepthVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Run messages queued after the latest enqueue.",
	}, []string{"pool"})

	var err error
	if spawnedVec, err = registerCollector(reg, spawnedVec); err != nil {
		return nil, err
	}
	if completedVec, err = registerCollector(reg, completedVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}
	if rejectedVec, err = registerCollector(reg, rejectedVec); err != nil {
		return nil, err
	}
	if pollVec, err = registerCollector(reg, pollVec); err != nil {
		return nil, err
	}
	if repollVec, err = registerCollector(reg, repollVec); err != nil {
		return nil, err
	}
	if wakeVec, err = registerCollector(reg, wakeVec); err != nil {
		return nil, err
	}
	if queueDepthVec, err = registerCollector(reg, queueDepthVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		tasksSpawnedTotal:   spawnedVec,
		tasksCompletedTotal: completedVec,
		taskPanicTotal:      panicVec,
		taskRejectedTotal:   rejectedVec,
		pollDurationSeconds: pollVec,
		repollTotal:         repollVec,
		wakeTotal:           wakeVec,
		queueDepth:          queueDepthVec,
	}, nil
}

// RecordTaskSpawned records an accepted future.
func (m *MetricsExporter) RecordTaskSpawned(poolName string) {
	if m == nil {
		return
	}
	m.tasksSpawnedTotal.WithLabelValues(normalizeLabel(poolName, "unknown")).Inc()
}

// RecordPoll records the duration of one poll step.
func (m *MetricsExporter) RecordPoll(poolName string, duration time.Duration) {
	if m == nil {
		return
	}
	m.pollDurationSeconds.WithLabelValues(normalizeLabel(poolName, "unknown")).Observe(duration.Seconds())
}

// RecordRepoll records an immediate repoll.
func (m *MetricsExporter) RecordRepoll(poolName string) {
	if m == nil {
		return
	}
	m.repollTotal.WithLabelValues(normalizeLabel(poolName, "unknown")).Inc()
}

// RecordWake records a wake and its outcome.
func (m *MetricsExporter) RecordWake(poolName string, outcome core.WakeOutcome) {
	if m == nil {
		return
	}
	m.wakeTotal.WithLabelValues(normalizeLabel(poolName, "unknown"), outcome.String()).Inc()
}

// RecordTaskCompleted records a future that returned Ready.
func (m *MetricsExporter) RecordTaskCompleted(poolName string) {
	if m == nil {
		return
	}
	m.tasksCompletedTotal.WithLabelValues(normalizeLabel(poolName, "unknown")).Inc()
}

// RecordTaskPanic records task panic events.
func (m *MetricsExporter) RecordTaskPanic(poolName string, panicInfo any) {
	if m == nil {
		return
	}
	m.taskPanicTotal.WithLabelValues(normalizeLabel(poolName, "unknown")).Inc()
}

// RecordQueueDepth records queue depth.
func (m *MetricsExporter) RecordQueueDepth(poolName string, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(normalizeLabel(poolName, "unknown")).Set(float64(depth))
}

// RecordTaskRejected records task rejection events.
func (m *MetricsExporter) RecordTaskRejected(poolName string, reason string) {
	if m == nil {
		return
	}
	m.taskRejectedTotal.WithLabelValues(normalizeLabel(poolName, "unknown"), normalizeLabel(reason, "unknown")).Inc()
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
