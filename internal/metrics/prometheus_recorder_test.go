package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveStageDuration("generate", 150*time.Millisecond)
	pr.IncStageResult("generate", ResultSuccess)
	pr.IncStageResult("install", ResultTimeout)
	pr.IncStageRetry("install")
	pr.IncStageRetry("install")
	pr.ObservePipelineDuration(500 * time.Millisecond)
	pr.IncPipelineOutcome("success")
	pr.IncPluginResult("database", true)
	pr.IncPluginResult("auth", false)

	if got := testutil.ToFloat64(pr.stageRetries.WithLabelValues("install")); got != 2 {
		t.Errorf("install retries = %v, want 2", got)
	}
	if got := testutil.ToFloat64(pr.stageResults.WithLabelValues("install", string(ResultTimeout))); got != 1 {
		t.Errorf("install timeouts = %v, want 1", got)
	}
	if got := testutil.ToFloat64(pr.pluginResults.WithLabelValues("auth", "failed")); got != 1 {
		t.Errorf("auth failures = %v, want 1", got)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) != 6 {
		t.Errorf("gathered %d metric families, want 6", len(mfs))
	}
}

func TestWriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncPipelineOutcome("failed")

	path := filepath.Join(t.TempDir(), "stackgen.prom")
	if err := pr.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(raw), `stackgen_pipeline_outcomes_total{outcome="failed"} 1`) {
		t.Errorf("textfile missing outcome counter:\n%s", raw)
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration("x", time.Second)
	r.IncStageResult("x", ResultFailed)
	r.IncStageRetry("x")
	r.ObservePipelineDuration(time.Second)
	r.IncPipelineOutcome("success")
	r.IncPluginResult("x", true)
}
