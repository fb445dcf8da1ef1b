// Package metrics provides internal metrics collection.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/BaSui01/promptflow/types"
)

// Collector 指标收集器
type Collector struct {
	// 后端
	backendCalls    *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec

	// 缓存
	cacheLookups *prometheus.CounterVec

	// 流水线
	runsTotal    *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	stepsTotal   *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	stepAttempts *prometheus.HistogramVec
	retriesTotal *prometheus.CounterVec

	// 自举
	bootstrapRuns  *prometheus.CounterVec
	bootstrapDemos *prometheus.GaugeVec

	logger *zap.Logger
}

// NewCollector registers all metrics on reg under namespace. A nil reg uses
// the default Prometheus registerer.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	f := promauto.With(reg)
	c := &Collector{logger: logger.With(zap.String("component", "metrics"))}

	c.backendCalls = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_calls_total",
			Help:      "Total number of generation backend calls",
		},
		[]string{"backend", "status", "code"},
	)
	c.backendDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_call_duration_seconds",
			Help:      "Generation backend call duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"backend"},
	)

	c.cacheLookups = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by result",
		},
		[]string{"backend", "result"},
	)

	c.runsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Total number of pipeline runs",
		},
		[]string{"pipeline", "status"},
	)
	c.runDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_run_duration_seconds",
			Help:      "Pipeline run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"pipeline"},
	)
	c.stepsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_steps_total",
			Help:      "Total number of finished pipeline steps",
		},
		[]string{"pipeline", "module", "status"},
	)
	c.stepDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_step_duration_seconds",
			Help:      "Pipeline step duration in seconds, retries included",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"pipeline", "module"},
	)
	c.stepAttempts = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_step_attempts",
			Help:      "Attempts used per pipeline step",
			Buckets:   []float64{1, 2, 3, 5, 8},
		},
		[]string{"pipeline", "module"},
	)
	c.retriesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_retries_total",
			Help:      "Total number of step retries",
		},
		[]string{"pipeline", "module"},
	)

	c.bootstrapRuns = f.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bootstrap_runs_total",
			Help:      "Total number of bootstrap compilations",
		},
		[]string{"module"},
	)
	c.bootstrapDemos = f.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bootstrap_demonstrations",
			Help:      "Demonstrations selected by the last compilation",
		},
		[]string{"module", "kind"}, // kind: labeled, bootstrapped, skipped
	)

	c.logger.Debug("metrics collector initialized", zap.String("namespace", namespace))
	return c
}

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}

// RecordBackendCall implements llm.Recorder.
func (c *Collector) RecordBackendCall(backend string, duration time.Duration, err error) {
	code := ""
	if err != nil {
		code = string(types.GetErrorCode(err))
	}
	c.backendCalls.WithLabelValues(backend, status(err == nil), code).Inc()
	c.backendDuration.WithLabelValues(backend).Observe(duration.Seconds())
}

// RecordCacheLookup implements cache.Recorder.
func (c *Collector) RecordCacheLookup(backend string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(backend, result).Inc()
}

// RecordStep implements pipeline.Recorder.
func (c *Collector) RecordStep(pipeline, module string, duration time.Duration, attempts int, err error) {
	c.stepsTotal.WithLabelValues(pipeline, module, status(err == nil)).Inc()
	c.stepDuration.WithLabelValues(pipeline, module).Observe(duration.Seconds())
	c.stepAttempts.WithLabelValues(pipeline, module).Observe(float64(attempts))
}

// RecordRetry implements pipeline.Recorder.
func (c *Collector) RecordRetry(pipeline, module string) {
	c.retriesTotal.WithLabelValues(pipeline, module).Inc()
}

// RecordRun implements pipeline.Recorder.
func (c *Collector) RecordRun(pipeline string, duration time.Duration, success bool) {
	c.runsTotal.WithLabelValues(pipeline, status(success)).Inc()
	c.runDuration.WithLabelValues(pipeline).Observe(duration.Seconds())
}

// RecordBootstrap implements optimizer.Recorder.
func (c *Collector) RecordBootstrap(module string, labeled, bootstrapped, skipped int, _ time.Duration) {
	c.bootstrapRuns.WithLabelValues(module).Inc()
	c.bootstrapDemos.WithLabelValues(module, "labeled").Set(float64(labeled))
	c.bootstrapDemos.WithLabelValues(module, "bootstrapped").Set(float64(bootstrapped))
	c.bootstrapDemos.WithLabelValues(module, "skipped").Set(float64(skipped))
}
