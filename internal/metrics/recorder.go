// Package metrics records pipeline stage and plugin outcomes. The default
// NoopRecorder discards everything; PrometheusRecorder exports to a
// Prometheus registry that the CLI can dump to a textfile.
package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultTimeout  ResultLabel = "timeout"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder receives stage, pipeline and plugin observations.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncStageRetry(stage string)
	ObservePipelineDuration(d time.Duration)
	IncPipelineOutcome(outcome string) // success|failed
	IncPluginResult(plugin string, success bool)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncStageRetry(string)                       {}
func (NoopRecorder) ObservePipelineDuration(time.Duration)      {}
func (NoopRecorder) IncPipelineOutcome(string)                  {}
func (NoopRecorder) IncPluginResult(string, bool)               {}
