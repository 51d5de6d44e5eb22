package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for a migration run. Implementations
// must be safe for concurrent use: fetch and commit workers call them in parallel.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(mode string, result ResultLabel)
	ObserveFetchDuration(lane string, d time.Duration)
	IncFetchOutcome(lane, outcome string)
	IncMatch(lane string)
	ObserveCommitDuration(d time.Duration, success bool)
	IncCommitResult(success bool)
	SetConcurrency(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)           {}
func (NoopRecorder) IncRunOutcome(string, ResultLabel)          {}
func (NoopRecorder) ObserveFetchDuration(string, time.Duration) {}
func (NoopRecorder) IncFetchOutcome(string, string)             {}
func (NoopRecorder) IncMatch(string)                            {}
func (NoopRecorder) ObserveCommitDuration(time.Duration, bool)  {}
func (NoopRecorder) IncCommitResult(bool)                       {}
func (NoopRecorder) SetConcurrency(int)                         {}
