// Package metrics records submission metrics and pushes them to a
// Prometheus push gateway at the end of a run.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/delange/planetary-computer-batch/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Recorder holds the metrics of one submit run.
type Recorder struct {
	conf config.Metrics
	reg  *prometheus.Registry

	scenes      prometheus.Gauge
	tasks       *prometheus.CounterVec
	errors      *prometheus.CounterVec
	runDuration prometheus.Gauge
	lastSuccess prometheus.Gauge
}

// NewRecorder returns a Recorder with its own registry.
func NewRecorder(conf config.Metrics) *Recorder {
	r := &Recorder{
		conf: conf,
		reg:  prometheus.NewRegistry(),
		scenes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pcbatch",
			Subsystem: "search",
			Name:      "scenes",
			Help:      "Number of scenes found by the catalog search.",
		}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pcbatch",
			Subsystem: "tasks",
			Name:      "submitted_total",
			Help:      "Number of tasks submitted to the compute backend.",
		}, []string{"backend"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pcbatch",
			Subsystem: "platform",
			Name:      "errors_total",
			Help:      "Number of errors returned by the compute backend.",
		}, []string{"backend", "code"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pcbatch",
			Subsystem: "submit",
			Name:      "duration_seconds",
			Help:      "Duration of the last submit run.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pcbatch",
			Subsystem: "submit",
			Name:      "last_success_timestamp_seconds",
			Help:      "Time of the last successful submit run.",
		}),
	}
	r.reg.MustRegister(r.scenes, r.tasks, r.errors, r.runDuration, r.lastSuccess)
	return r
}

// Registry returns the registry the metrics are registered with.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.reg
}

// ScenesFound records the number of scenes returned by the search.
func (r *Recorder) ScenesFound(n int) {
	r.scenes.Set(float64(n))
}

// TaskSubmitted counts a task accepted by the backend.
func (r *Recorder) TaskSubmitted(backend string) {
	r.tasks.WithLabelValues(backend).Inc()
}

// PlatformError counts an error returned by the backend.
func (r *Recorder) PlatformError(backend, code string) {
	if code == "" {
		code = "unknown"
	}
	r.errors.WithLabelValues(backend, code).Inc()
}

// RunFinished records the run duration, and the completion time when the
// run succeeded.
func (r *Recorder) RunFinished(d time.Duration, success bool) {
	r.runDuration.Set(d.Seconds())
	if success {
		r.lastSuccess.SetToCurrentTime()
	}
}

// Push sends the recorded metrics to the configured push gateway. It does
// nothing when no push gateway is configured.
func (r *Recorder) Push(ctx context.Context) error {
	if r.conf.PushGateway == "" {
		return nil
	}
	err := push.New(r.conf.PushGateway, r.conf.Job).
		Gatherer(r.reg).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", r.conf.PushGateway, err)
	}
	return nil
}
