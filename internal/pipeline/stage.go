package pipeline

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/stackgen/stackgen/internal/plugin"
	"github.com/stackgen/stackgen/pkg/models"
)

// Stage defaults.
const (
	DefaultTimeout = 30 * time.Second
	DefaultRetries = 0
)

// StageFunc is the unit of work of a stage. It should return promptly once
// ctx is done; an action that ignores ctx keeps running in the background
// after its stage has timed out.
type StageFunc func(ctx context.Context, cfg *models.ProjectConfig, sc *StageContext) (any, error)

// Stage is a named step of a pipeline.
type Stage struct {
	Name     string
	Action   StageFunc
	Required bool
	Timeout  time.Duration
	Retries  int

	// Backoff bounds between retries. Zero values use the resilience
	// package defaults.
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// StageOption configures a Stage.
type StageOption func(*Stage)

// Optional marks the stage as non-required: its failure is recorded and
// the pipeline continues.
func Optional() StageOption {
	return Required(false)
}

// Required sets whether a failure of the stage stops the pipeline.
func Required(required bool) StageOption {
	return func(s *Stage) {
		s.Required = required
	}
}

// WithTimeout bounds each attempt of the stage. Non-positive values keep
// the default.
func WithTimeout(d time.Duration) StageOption {
	return func(s *Stage) {
		if d > 0 {
			s.Timeout = d
		}
	}
}

// WithRetries sets how many times a failed attempt is retried.
func WithRetries(n int) StageOption {
	return func(s *Stage) {
		s.Retries = max(n, 0)
	}
}

// WithRetryBackoff sets the exponential backoff bounds between retries.
func WithRetryBackoff(base, maxDelay time.Duration) StageOption {
	return func(s *Stage) {
		s.BackoffBase = base
		s.BackoffMax = maxDelay
	}
}

// StageContext is what a stage action sees of the run: the shared
// generation context plus the identity of the current attempt.
type StageContext struct {
	*plugin.GenerationContext

	Stage   string
	Attempt int

	sink *warnSink
}

// Warn records a warning against the current stage. Stage warnings are
// reported whether or not the stage succeeds.
func (sc *StageContext) Warn(msg string) {
	sc.sink.add(msg)
}

type warnSink struct {
	mu   sync.Mutex
	msgs []string
}

func (w *warnSink) add(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msg)
}

func (w *warnSink) list() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.msgs)
}
