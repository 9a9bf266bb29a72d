// Package generator composes the plugin registry and hook bus into the
// three-phase generation run: preGenerate hooks, plugin execution, then
// postGenerate hooks.
package generator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/stackgen/stackgen/internal/logfields"
	"github.com/stackgen/stackgen/internal/plugin"
	"github.com/stackgen/stackgen/pkg/models"
)

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the generator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithRegistryOptions forwards options to the owned registry.
func WithRegistryOptions(opts ...plugin.RegistryOption) Option {
	return func(g *Generator) {
		g.registryOpts = append(g.registryOpts, opts...)
	}
}

// WithContextOptions applies opts to every GenerationContext the generator
// creates.
func WithContextOptions(opts ...plugin.ContextOption) Option {
	return func(g *Generator) {
		g.contextOpts = append(g.contextOpts, opts...)
	}
}

// Generator owns one plugin registry. Instances share no state.
type Generator struct {
	registry     *plugin.Registry
	logger       *slog.Logger
	registryOpts []plugin.RegistryOption
	contextOpts  []plugin.ContextOption

	mu     sync.Mutex
	totals plugin.ExecutionResult
}

// New creates a Generator with an empty registry.
func New(opts ...Option) *Generator {
	g := &Generator{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	regOpts := append([]plugin.RegistryOption{plugin.WithRegistryLogger(g.logger)}, g.registryOpts...)
	g.registry = plugin.NewRegistry(regOpts...)
	return g
}

// Registry returns the owned registry.
func (g *Generator) Registry() *plugin.Registry {
	return g.registry
}

// Register admits a plugin into the owned registry.
func (g *Generator) Register(p plugin.Plugin) error {
	return g.registry.Register(p)
}

// RegisterPlugins admits a batch of plugins atomically.
func (g *Generator) RegisterPlugins(plugins ...plugin.Plugin) error {
	return g.registry.RegisterPlugins(plugins...)
}

// Unregister removes a plugin from the owned registry.
func (g *Generator) Unregister(name string) error {
	return g.registry.Unregister(name)
}

// NewContext creates the generation context for one run of cfg.
func (g *Generator) NewContext(cfg *models.ProjectConfig) *plugin.GenerationContext {
	opts := append([]plugin.ContextOption{plugin.WithLogger(g.logger)}, g.contextOpts...)
	return plugin.NewGenerationContext(cfg, opts...)
}

// Generate runs the three phases for cfg with a fresh context.
func (g *Generator) Generate(ctx context.Context, cfg *models.ProjectConfig) (*plugin.ExecutionResult, error) {
	return g.GenerateWith(ctx, cfg, g.NewContext(cfg))
}

// GenerateWith runs the three phases against a caller-supplied context.
//
// A preGenerate or postGenerate hook failure is returned as a
// *plugin.HookError and aborts the run. Plugin failures are recorded in the
// result. The merged result of the run is also added to the generator's
// running totals.
func (g *Generator) GenerateWith(ctx context.Context, cfg *models.ProjectConfig, gc *plugin.GenerationContext) (*plugin.ExecutionResult, error) {
	logger := g.logger.With(logfields.RunID(gc.RunID))
	start := time.Now()
	logger.Info("generation started", logfields.ProjectDir(gc.ProjectDir), slog.String("stack", cfg.String()))

	bus := g.registry.Hooks()
	run := &plugin.ExecutionResult{}

	pre, err := bus.Run(ctx, plugin.HookPreGenerate, &plugin.HookContext{
		Config:     cfg,
		Generation: gc,
		Data:       make(map[string]any),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", plugin.HookPreGenerate, err)
	}
	run.Warnings = append(run.Warnings, pre.Warnings...)

	executed := g.registry.ExecutePlugins(ctx, cfg, gc)
	run.Merge(executed)

	post, err := bus.Run(ctx, plugin.HookPostGenerate, &plugin.HookContext{
		Config:     cfg,
		Generation: gc,
		Results:    executed,
		Data:       pre.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", plugin.HookPostGenerate, err)
	}
	run.Warnings = append(run.Warnings, post.Warnings...)
	run.Warnings = append(run.Warnings, gc.Warnings()...)

	g.mu.Lock()
	g.totals.Merge(run)
	g.mu.Unlock()

	logger.Info("generation finished",
		slog.Int("succeeded", len(run.Success)),
		slog.Int("failed", len(run.Failed)),
		slog.Int("warnings", len(run.Warnings)),
		logfields.Duration(time.Since(start)),
	)
	return run, nil
}

// ValidationResult is the outcome of the validateConfig hook.
type ValidationResult struct {
	IsValid  bool
	Results  map[string]any
	Errors   []string
	Warnings []string
}

// ValidateConfig runs the validateConfig hook over cfg. Handler errors are
// reported in the result rather than returned. Handlers flag problems by
// appending to HookContext.Errors.
func (g *Generator) ValidateConfig(ctx context.Context, cfg *models.ProjectConfig) ValidationResult {
	out, err := g.registry.Hooks().Run(ctx, plugin.HookValidateConfig, &plugin.HookContext{
		Config: cfg,
		Data:   make(map[string]any),
	})
	if err != nil {
		return ValidationResult{IsValid: false, Errors: []string{err.Error()}}
	}
	return ValidationResult{
		IsValid:  len(out.Errors) == 0,
		Results:  out.Data,
		Errors:   out.Errors,
		Warnings: out.Warnings,
	}
}

// Stats summarizes the registry and the generator's running totals.
type Stats struct {
	Plugins        int
	Hooks          int
	ExecutionOrder []string
	Successes      int
	Failures       int
	// SuccessRate is a percentage. It is NaN before any plugin has run.
	SuccessRate float64
}

// Stats returns registry statistics and the running totals across every
// Generate call on g.
func (g *Generator) Stats() Stats {
	reg := g.registry.Stats()

	g.mu.Lock()
	successes, failures := len(g.totals.Success), len(g.totals.Failed)
	g.mu.Unlock()

	rate := math.NaN()
	if total := successes + failures; total > 0 {
		rate = float64(successes) / float64(total) * 100
	}
	return Stats{
		Plugins:        reg.Plugins,
		Hooks:          reg.Hooks,
		ExecutionOrder: reg.ExecutionOrder,
		Successes:      successes,
		Failures:       failures,
		SuccessRate:    rate,
	}
}

// Totals returns a copy of the results accumulated across runs.
func (g *Generator) Totals() plugin.ExecutionResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out plugin.ExecutionResult
	out.Merge(&g.totals)
	return out
}
