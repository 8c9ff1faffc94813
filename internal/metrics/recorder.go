package metrics

import "time"

// ResultLabel enumerates outcome categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for fetch, run and notification metrics.
type Recorder interface {
	ObserveFetchDuration(resource string, d time.Duration)
	IncFetchAttempt(resource string, outcome string) // outcome: success|rate_limited|server_error|client_error|transport_error
	IncFetchExhausted(resource string)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome ResultLabel)
	IncTransition(from, to string)
	IncNotification(sender string, result ResultLabel)
	SetTrackedIdentities(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveFetchDuration(string, time.Duration) {}
func (NoopRecorder) IncFetchAttempt(string, string)             {}
func (NoopRecorder) IncFetchExhausted(string)                   {}
func (NoopRecorder) ObserveRunDuration(time.Duration)           {}
func (NoopRecorder) IncRunOutcome(ResultLabel)                  {}
func (NoopRecorder) IncTransition(string, string)               {}
func (NoopRecorder) IncNotification(string, ResultLabel)        {}
func (NoopRecorder) SetTrackedIdentities(int)                   {}

// OrNoop returns r, or a NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
