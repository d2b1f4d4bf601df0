// Package metrics exports login flow counters to Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"phonelogin/internal/autherr"
)

// Recorder implements the login observer on a private registry.
type Recorder struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	runs        *prometheus.CounterVec
	duration    prometheus.Histogram
	retries     prometheus.Histogram
}

// NewRecorder registers the login collectors on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phonelogin_state_transitions_total",
				Help: "Login state machine transitions",
			},
			[]string{"from", "to"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phonelogin_login_runs_total",
				Help: "Finished login runs by outcome",
			},
			[]string{"success", "kind", "reason", "retryable"},
		),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "phonelogin_login_run_duration_seconds",
			Help:    "Duration of one login run",
			Buckets: prometheus.DefBuckets,
		}),
		retries: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "phonelogin_login_retry_count",
			Help:    "Retry count at the end of each run",
			Buckets: []float64{0, 1, 2, 3},
		}),
	}
	r.registry.MustRegister(r.transitions, r.runs, r.duration, r.retries)
	return r
}

// Registry exposes the registry for the /metrics handler.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) ObserveTransition(from, to string) {
	r.transitions.WithLabelValues(from, to).Inc()
}

func (r *Recorder) ObserveRun(err *autherr.Error, retries int, elapsed time.Duration) {
	r.duration.Observe(elapsed.Seconds())
	r.retries.Observe(float64(retries))
	if err == nil {
		r.runs.WithLabelValues("true", "", "", "").Inc()
		return
	}
	r.runs.WithLabelValues("false", string(err.Kind), string(err.Reason), strconv.FormatBool(err.Retryable)).Inc()
}
