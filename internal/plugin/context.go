package plugin

import (
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stackgen/stackgen/internal/manifest"
	"github.com/stackgen/stackgen/pkg/models"
)

// GenerationContext is the single mutable record shared by every hook and
// plugin during one generation run. It is created once per run and passed
// by pointer; plugins later in the execution order observe what earlier
// plugins wrote.
//
// Accessors take a lock so that a stage abandoned after a timeout cannot
// race the stage that follows it. Callers still treat the context as
// single-writer.
type GenerationContext struct {
	RunID      string
	Config     *models.ProjectConfig
	ProjectDir string
	Logger     *slog.Logger
	StartedAt  time.Time
	Manifest   *manifest.Manifest

	mu       sync.Mutex
	data     map[string]any
	files    []string
	warnings []string
}

// ContextOption configures a GenerationContext.
type ContextOption func(*GenerationContext)

// WithProjectDir sets the directory generated files are written to.
func WithProjectDir(dir string) ContextOption {
	return func(gc *GenerationContext) {
		gc.ProjectDir = dir
	}
}

// WithLogger sets the run logger.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(gc *GenerationContext) {
		if logger != nil {
			gc.Logger = logger
		}
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) ContextOption {
	return func(gc *GenerationContext) {
		if id != "" {
			gc.RunID = id
		}
	}
}

// NewGenerationContext creates the context for one run of cfg.
func NewGenerationContext(cfg *models.ProjectConfig, opts ...ContextOption) *GenerationContext {
	gc := &GenerationContext{
		RunID:     uuid.NewString(),
		Config:    cfg,
		StartedAt: time.Now(),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		data:      make(map[string]any),
	}
	if cfg != nil {
		gc.ProjectDir = cfg.ProjectDir
		gc.Manifest = manifest.New(cfg.ProjectName)
	} else {
		gc.Manifest = manifest.New("")
	}
	for _, opt := range opts {
		opt(gc)
	}
	return gc
}

// Set stores a value under key, replacing any previous value.
func (gc *GenerationContext) Set(key string, value any) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.data[key] = value
}

// Get returns the value stored under key.
func (gc *GenerationContext) Get(key string) (any, bool) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	v, ok := gc.data[key]
	return v, ok
}

// String returns the string stored under key, or "".
func (gc *GenerationContext) String(key string) string {
	v, _ := gc.Get(key)
	s, _ := v.(string)
	return s
}

// Bool returns the bool stored under key, or false.
func (gc *GenerationContext) Bool(key string) bool {
	v, _ := gc.Get(key)
	b, _ := v.(bool)
	return b
}

// Int returns the int stored under key, or 0.
func (gc *GenerationContext) Int(key string) int {
	v, _ := gc.Get(key)
	n, _ := v.(int)
	return n
}

// AddFiles records files written during the run.
func (gc *GenerationContext) AddFiles(paths ...string) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.files = append(gc.files, paths...)
}

// Files returns a copy of the files written so far.
func (gc *GenerationContext) Files() []string {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return slices.Clone(gc.files)
}

// Warn records a non-fatal warning against the run.
func (gc *GenerationContext) Warn(msg string) {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	gc.warnings = append(gc.warnings, msg)
}

// Warnings returns a copy of the recorded warnings.
func (gc *GenerationContext) Warnings() []string {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return slices.Clone(gc.warnings)
}
