// Package pipeline runs a fixed sequence of named stages. Each stage
// attempt is bounded by a timeout, failed attempts can be retried with
// exponential backoff, and a failing required stage stops the run while
// optional stage failures are recorded and passed over.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stackgen/stackgen/internal/logfields"
	"github.com/stackgen/stackgen/internal/metrics"
	"github.com/stackgen/stackgen/internal/plugin"
	"github.com/stackgen/stackgen/internal/resilience"
	"github.com/stackgen/stackgen/pkg/models"
)

const tracerName = "github.com/stackgen/stackgen/internal/pipeline"

// Observer is notified as stages start and complete.
type Observer interface {
	OnStageStart(stage string, index, total int)
	OnStageComplete(result StageResult)
	OnRunComplete(result *RunResult)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithObserver adds an observer. Observers are called in the order added.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.observers = append(p.observers, o)
		}
	}
}

// WithTracer sets the tracer used for run and stage spans. The default is
// the global OpenTelemetry provider.
func WithTracer(t trace.Tracer) Option {
	return func(p *Pipeline) {
		if t != nil {
			p.tracer = t
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithContextOptions applies opts to the GenerationContext each run creates.
func WithContextOptions(opts ...plugin.ContextOption) Option {
	return func(p *Pipeline) {
		p.contextOpts = append(p.contextOpts, opts...)
	}
}

// Pipeline is an ordered set of stages. Stages run strictly one after
// another in the order they were added.
type Pipeline struct {
	logger      *slog.Logger
	observers   []Observer
	tracer      trace.Tracer
	recorder    metrics.Recorder
	contextOpts []plugin.ContextOption

	mu     sync.Mutex
	stages []*Stage
	last   *RunResult
}

// New creates an empty pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:   otel.Tracer(tracerName),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AddStage appends a stage. Stages are required, with a 30s timeout and no
// retries, unless options say otherwise.
func (p *Pipeline) AddStage(name string, action StageFunc, opts ...StageOption) error {
	if name == "" || action == nil {
		return fmt.Errorf("%w: stage needs a name and an action", ErrInvalidStage)
	}
	st := &Stage{
		Name:     name,
		Action:   action,
		Required: true,
		Timeout:  DefaultTimeout,
		Retries:  DefaultRetries,
	}
	for _, opt := range opts {
		opt(st)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if slices.ContainsFunc(p.stages, func(s *Stage) bool { return s.Name == name }) {
		return fmt.Errorf("%w: %q", ErrDuplicateStage, name)
	}
	p.stages = append(p.stages, st)
	return nil
}

// RemoveStage removes the named stage and reports whether it existed.
func (p *Pipeline) RemoveStage(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.stages)
	p.stages = slices.DeleteFunc(p.stages, func(s *Stage) bool { return s.Name == name })
	return len(p.stages) != n
}

// Stage returns a copy of the named stage's configuration.
func (p *Pipeline) Stage(name string) (Stage, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.stages {
		if s.Name == name {
			return *s, true
		}
	}
	return Stage{}, false
}

// Stages returns stage names in execution order.
func (p *Pipeline) Stages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.stages))
	for _, s := range p.stages {
		names = append(names, s.Name)
	}
	return names
}

// Execute runs every stage against cfg with a fresh GenerationContext.
func (p *Pipeline) Execute(ctx context.Context, cfg *models.ProjectConfig) *RunResult {
	opts := append([]plugin.ContextOption{plugin.WithLogger(p.logger)}, p.contextOpts...)
	return p.ExecuteWith(ctx, cfg, plugin.NewGenerationContext(cfg, opts...))
}

// ExecuteWith runs every stage against cfg, sharing gc between stages.
// The returned result is also kept as the pipeline's last result.
func (p *Pipeline) ExecuteWith(ctx context.Context, cfg *models.ProjectConfig, gc *plugin.GenerationContext) *RunResult {
	p.mu.Lock()
	stages := make([]Stage, len(p.stages))
	for i, s := range p.stages {
		stages[i] = *s
	}
	p.mu.Unlock()

	logger := p.logger.With(logfields.RunID(gc.RunID))
	run := &RunResult{
		Overall:     Overall{Success: true},
		TotalStages: len(stages),
		StartedAt:   time.Now(),
	}

	ctx, span := p.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("run.id", gc.RunID),
		attribute.Int("pipeline.stages", len(stages)),
	))
	defer span.End()

	for i, st := range stages {
		res := p.executeStage(ctx, logger, st, cfg, gc, i+1, len(stages))
		run.Stages = append(run.Stages, res)
		run.Overall.Warnings = append(run.Overall.Warnings, res.Warnings...)

		if res.Success {
			continue
		}
		if st.Required {
			run.Overall.Success = false
			run.Overall.Errors = append(run.Overall.Errors, &StageError{Stage: st.Name, Required: true, Err: res.Err})
			logger.Error("required stage failed, stopping pipeline", logfields.Stage(st.Name), logfields.Error(res.Err))
			break
		}
		logger.Warn("optional stage failed, continuing", logfields.Stage(st.Name), logfields.Error(res.Err))
	}

	run.Duration = time.Since(run.StartedAt)
	outcome := "success"
	if !run.Overall.Success {
		outcome = "failed"
		span.SetStatus(codes.Error, errors.Join(run.Overall.Errors...).Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	p.recorder.ObservePipelineDuration(run.Duration)
	p.recorder.IncPipelineOutcome(outcome)

	p.mu.Lock()
	p.last = run
	p.mu.Unlock()

	for _, o := range p.observers {
		o.OnRunComplete(run)
	}
	logger.Info("pipeline finished",
		slog.String("outcome", outcome),
		slog.Int("stages_run", len(run.Stages)),
		logfields.Duration(run.Duration),
	)
	return run
}

// executeStage runs all attempts of one stage and measures the wall clock
// around them.
func (p *Pipeline) executeStage(ctx context.Context, logger *slog.Logger, st Stage, cfg *models.ProjectConfig, gc *plugin.GenerationContext, index, total int) StageResult {
	for _, o := range p.observers {
		o.OnStageStart(st.Name, index, total)
	}
	logger = logger.With(logfields.Stage(st.Name))
	logger.Debug("stage started", slog.Int("index", index), slog.Int("total", total))

	ctx, span := p.tracer.Start(ctx, "stage."+st.Name, trace.WithAttributes(
		attribute.String("stage.name", st.Name),
		attribute.Bool("stage.required", st.Required),
		attribute.Int64("stage.timeout_ms", st.Timeout.Milliseconds()),
	))
	defer span.End()

	sink := &warnSink{}
	var (
		out      any
		attempts int
	)
	policy := resilience.RetryPolicy{
		MaxRetries: st.Retries,
		BaseDelay:  st.BackoffBase,
		MaxDelay:   st.BackoffMax,
		OnRetry: func(next int, err error, delay time.Duration) {
			logger.Warn("retrying stage", logfields.Attempt(next), logfields.Error(err), slog.Duration("backoff", delay))
			p.recorder.IncStageRetry(st.Name)
		},
	}

	start := time.Now()
	err := resilience.Retry(ctx, policy, func(attempt int) error {
		attempts = attempt
		sc := &StageContext{GenerationContext: gc, Stage: st.Name, Attempt: attempt, sink: sink}
		v, err := p.attempt(ctx, st, cfg, sc)
		if err == nil {
			out = v
		}
		return err
	})
	duration := time.Since(start)

	res := StageResult{
		Name:     st.Name,
		Required: st.Required,
		Success:  err == nil,
		Result:   out,
		Err:      err,
		Duration: duration,
		Warnings: sink.list(),
		Attempts: attempts,
	}

	span.SetAttributes(attribute.Int("stage.attempts", attempts))
	label := metrics.ResultSuccess
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		switch {
		case errors.Is(err, ErrStageTimeout):
			label = metrics.ResultTimeout
		case errors.Is(err, context.Canceled):
			label = metrics.ResultCanceled
		default:
			label = metrics.ResultFailed
		}
		logger.Debug("stage failed", logfields.Duration(duration), logfields.Error(err))
	} else {
		span.SetStatus(codes.Ok, "")
		logger.Debug("stage completed", logfields.Duration(duration), logfields.Attempt(attempts))
	}
	p.recorder.ObserveStageDuration(st.Name, duration)
	p.recorder.IncStageResult(st.Name, label)

	for _, o := range p.observers {
		o.OnStageComplete(res)
	}
	return res
}

type attemptResult struct {
	value any
	err   error
}

// attempt races one invocation of the stage action against its timeout.
// The action's context is cancelled when the race is lost; an action that
// does not observe it is abandoned and may still finish in the background.
func (p *Pipeline) attempt(ctx context.Context, st Stage, cfg *models.ProjectConfig, sc *StageContext) (any, error) {
	actx, cancel := context.WithTimeout(ctx, st.Timeout)
	defer cancel()

	done := make(chan attemptResult, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- attemptResult{err: fmt.Errorf("%w: %v", ErrStagePanic, rec)}
			}
		}()
		v, err := st.Action(actx, cfg, sc)
		done <- attemptResult{value: v, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{Stage: st.Name, Timeout: st.Timeout}
		}
		return r.value, r.err
	case <-actx.Done():
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, &TimeoutError{Stage: st.Name, Timeout: st.Timeout}
	}
}

// Result returns the most recent run result, or nil before the first run.
func (p *Pipeline) Result() *RunResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// IsSuccessful reports whether the most recent run completed without a
// required stage failing.
func (p *Pipeline) IsSuccessful() bool {
	r := p.Result()
	return r != nil && r.Overall.Success
}

// Errors returns the overall errors of the most recent run.
func (p *Pipeline) Errors() []error {
	if r := p.Result(); r != nil {
		return slices.Clone(r.Overall.Errors)
	}
	return nil
}

// Warnings returns the overall warnings of the most recent run.
func (p *Pipeline) Warnings() []string {
	if r := p.Result(); r != nil {
		return slices.Clone(r.Overall.Warnings)
	}
	return nil
}

// Stats returns statistics of the most recent run.
func (p *Pipeline) Stats() Stats {
	if r := p.Result(); r != nil {
		return r.Stats()
	}
	return Stats{TotalStages: len(p.Stages())}
}
