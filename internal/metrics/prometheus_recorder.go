package metrics

import (
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "stackgen"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry         *prom.Registry
	stageDuration    *prom.HistogramVec
	stageResults     *prom.CounterVec
	stageRetries     *prom.CounterVec
	pipelineDuration prom.Histogram
	pipelineOutcome  *prom.CounterVec
	pluginResults    *prom.CounterVec
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		stageRetries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_retries_total",
			Help:      "Stage attempts beyond the first",
		}, []string{"stage"}),
		pipelineDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Total pipeline duration",
			Buckets:   prom.DefBuckets,
		}),
		pipelineOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_outcomes_total",
			Help:      "Pipeline runs by final status",
		}, []string{"outcome"}),
		pluginResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "plugin_results_total",
			Help:      "Plugin executions by result",
		}, []string{"plugin", "result"}),
	}
	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.stageRetries, pr.pipelineDuration, pr.pipelineOutcome, pr.pluginResults)
	return pr
}

// Registry returns the registry the metrics are registered with.
func (p *PrometheusRecorder) Registry() *prom.Registry {
	return p.registry
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncStageRetry(stage string) {
	p.stageRetries.WithLabelValues(stage).Inc()
}

func (p *PrometheusRecorder) ObservePipelineDuration(d time.Duration) {
	p.pipelineDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPipelineOutcome(outcome string) {
	p.pipelineOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncPluginResult(plugin string, success bool) {
	result := "failed"
	if success {
		result = "success"
	}
	p.pluginResults.WithLabelValues(plugin, result).Inc()
}

// WriteTextfile writes the current metric values in the text exposition
// format, for node_exporter's textfile collector or CI artifacts.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prom.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
