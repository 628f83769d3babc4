// Package metrics records what a cleaning run did and exports it in the
// Prometheus text format for node_exporter's textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fsclean"

// Recorder holds the run metrics. A nil *Recorder is valid and records
// nothing.
type Recorder struct {
	registry *prometheus.Registry

	candidates     *prometheus.CounterVec
	outcomes       *prometheus.CounterVec
	bytesReclaimed prometheus.Counter
	dirsPruned     prometheus.Counter
	logsSwept      prometheus.Counter
	fileErrors     *prometheus.CounterVec
	lastRun        prometheus.Gauge
	runDuration    prometheus.Gauge
}

// New creates a Recorder backed by its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		candidates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Files that matched a rule's age and scope",
		}, []string{"action", "mode"}),
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "file_outcomes_total",
			Help:      "Per-file results by action and outcome",
		}, []string{"action", "outcome"}),
		bytesReclaimed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_reclaimed_total",
			Help:      "Bytes freed on disk by rule actions",
		}),
		dirsPruned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dirs_pruned_total",
			Help:      "Empty date-partitioned directories removed",
		}),
		logsSwept: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "own_logs_deleted_total",
			Help:      "Expired log files of fsclean itself removed",
		}),
		fileErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "file_errors_total",
			Help:      "Per-file failures by operation",
		}, []string{"op"}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Start time of the last completed run",
		}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall clock duration of the last completed run",
		}),
	}
}

// Registry exposes the underlying registry, mostly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) Candidate(action, mode string) {
	if r == nil {
		return
	}
	r.candidates.WithLabelValues(action, mode).Inc()
}

func (r *Recorder) Outcome(action, outcome string) {
	if r == nil {
		return
	}
	r.outcomes.WithLabelValues(action, outcome).Inc()
}

func (r *Recorder) Reclaimed(bytes int64) {
	if r == nil || bytes <= 0 {
		return
	}
	r.bytesReclaimed.Add(float64(bytes))
}

func (r *Recorder) DirPruned() {
	if r == nil {
		return
	}
	r.dirsPruned.Inc()
}

func (r *Recorder) LogSwept() {
	if r == nil {
		return
	}
	r.logsSwept.Inc()
}

func (r *Recorder) FileError(op string) {
	if r == nil {
		return
	}
	r.fileErrors.WithLabelValues(op).Inc()
}

// RunFinished stamps the start time and duration of a run.
func (r *Recorder) RunFinished(start time.Time, took time.Duration) {
	if r == nil {
		return
	}
	r.lastRun.Set(float64(start.Unix()))
	r.runDuration.Set(took.Seconds())
}

// WriteTextfile atomically replaces path with the current metric values.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
