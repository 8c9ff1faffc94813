package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "presencewatch"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	fetchDuration    *prom.HistogramVec
	fetchAttempts    *prom.CounterVec
	fetchExhausted   *prom.CounterVec
	runDuration      prom.Histogram
	runOutcome       *prom.CounterVec
	transitions      *prom.CounterVec
	notifications    *prom.CounterVec
	trackedIdentities prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		fetchDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of logical fetches including retries",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"resource"}),
		fetchAttempts: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_attempts_total",
			Help:      "Individual upstream requests by outcome",
		}, []string{"resource", "outcome"}),
		fetchExhausted: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_exhausted_total",
			Help:      "Fetches that used every retry attempt",
		}, []string{"resource"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total duration of a watch run",
			Buckets:   prom.DefBuckets,
		}),
		runOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Runs by final status",
		}, []string{"outcome"}),
		transitions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Detected presence state transitions",
		}, []string{"from", "to"}),
		notifications: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries by sender and result",
		}, []string{"sender", "result"}),
		trackedIdentities: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "tracked_identities",
			Help:      "Identities in the last run",
		}),
	}
	reg.MustRegister(pr.fetchDuration, pr.fetchAttempts, pr.fetchExhausted, pr.runDuration,
		pr.runOutcome, pr.transitions, pr.notifications, pr.trackedIdentities)
	return pr
}

func (p *PrometheusRecorder) ObserveFetchDuration(resource string, d time.Duration) {
	if p == nil {
		return
	}
	p.fetchDuration.WithLabelValues(resource).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncFetchAttempt(resource, outcome string) {
	if p == nil {
		return
	}
	p.fetchAttempts.WithLabelValues(resource, outcome).Inc()
}

func (p *PrometheusRecorder) IncFetchExhausted(resource string) {
	if p == nil {
		return
	}
	p.fetchExhausted.WithLabelValues(resource).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(outcome ResultLabel) {
	if p == nil {
		return
	}
	p.runOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncTransition(from, to string) {
	if p == nil {
		return
	}
	p.transitions.WithLabelValues(from, to).Inc()
}

func (p *PrometheusRecorder) IncNotification(sender string, result ResultLabel) {
	if p == nil {
		return
	}
	p.notifications.WithLabelValues(sender, string(result)).Inc()
}

func (p *PrometheusRecorder) SetTrackedIdentities(n int) {
	if p == nil {
		return
	}
	p.trackedIdentities.Set(float64(n))
}
