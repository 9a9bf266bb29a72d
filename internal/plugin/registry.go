package plugin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/stackgen/stackgen/internal/logfields"
	"github.com/stackgen/stackgen/pkg/models"
)

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the registry logger. The hook bus shares it.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithLenientDependencies turns unresolved dependency names into registry
// warnings instead of registration errors. Unresolved names are ignored
// for ordering until a plugin with that name is registered.
func WithLenientDependencies() RegistryOption {
	return func(r *Registry) {
		r.strict = false
	}
}

// WithApplicableDependencies makes dependencies imply applicability: an
// applicable plugin whose dependency does not run is skipped with a
// warning. Without it a dependency only orders execution.
func WithApplicableDependencies() RegistryOption {
	return func(r *Registry) {
		r.applicableDeps = true
	}
}

// Registry owns a set of plugins, keeps them in dependency order and runs
// the ones applicable to a configuration.
type Registry struct {
	mu             sync.RWMutex
	plugins        map[string]Plugin
	registered     []Plugin // registration order
	order          []Plugin // execution order
	bus            *HookBus
	logger         *slog.Logger
	strict         bool
	applicableDeps bool
	warnings       []string
}

// NewRegistry creates an empty registry in strict dependency mode.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		plugins: make(map[string]Plugin),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		strict:  true,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.bus = NewHookBus(r.logger)
	return r
}

// Register admits a single plugin. Its dependencies must already be
// registered unless the registry is lenient.
func (r *Registry) Register(p Plugin) error {
	return r.RegisterPlugins(p)
}

// RegisterPlugins admits a batch atomically. Dependencies may refer to any
// member of the batch regardless of position. On error nothing from the
// batch is registered.
func (r *Registry) RegisterPlugins(batch ...Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	incoming := make(map[string]Plugin, len(batch))
	for _, p := range batch {
		if p == nil {
			return ErrNilPlugin
		}
		name := p.Name()
		if name == "" {
			return ErrInvalidName
		}
		if _, dup := r.plugins[name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicatePlugin, name)
		}
		if _, dup := incoming[name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicatePlugin, name)
		}
		incoming[name] = p
	}

	var missing []error
	var warnings []string
	for _, p := range batch {
		for _, dep := range p.Dependencies() {
			_, known := r.plugins[dep]
			_, batched := incoming[dep]
			if known || batched {
				continue
			}
			if r.strict {
				missing = append(missing, fmt.Errorf("%w: plugin %q requires %q", ErrMissingDependency, p.Name(), dep))
				continue
			}
			warnings = append(warnings, fmt.Sprintf("plugin %q: dependency %q is not registered", p.Name(), dep))
		}
	}
	if len(missing) > 0 {
		return errors.Join(missing...)
	}

	candidate := append(slices.Clone(r.registered), batch...)
	order, err := computeOrder(candidate)
	if err != nil {
		r.logger.Error("plugin registration rejected", logfields.Error(err))
		return err
	}

	// Hooks are wired in execution order so a batch listing a dependent
	// before its dependency still runs the dependency's handlers first.
	for _, p := range order {
		if _, ok := incoming[p.Name()]; !ok {
			continue
		}
		r.plugins[p.Name()] = p
		for hook, handlers := range p.Hooks() {
			for _, h := range handlers {
				r.bus.Register(hook, p.Name(), h)
			}
		}
		r.logger.Debug("plugin registered",
			logfields.Plugin(p.Name()),
			slog.String("version", p.Version()),
			slog.Int("priority", p.Priority()),
		)
	}
	for _, w := range warnings {
		r.logger.Warn(w)
	}
	r.registered = candidate
	r.order = order
	r.warnings = append(r.warnings, warnings...)
	return nil
}

// Unregister removes a plugin and its hook handlers. In strict mode a
// plugin that another registered plugin depends on cannot be removed.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.plugins[name]; !ok {
		return fmt.Errorf("%w: %q", ErrPluginNotFound, name)
	}

	var dependents []string
	for _, p := range r.registered {
		if p.Name() != name && slices.Contains(p.Dependencies(), name) {
			dependents = append(dependents, p.Name())
		}
	}
	if len(dependents) > 0 {
		if r.strict {
			return fmt.Errorf("%w: %q is required by %s", ErrHasDependents, name, strings.Join(dependents, ", "))
		}
		for _, d := range dependents {
			r.warnings = append(r.warnings, fmt.Sprintf("plugin %q: dependency %q is not registered", d, name))
		}
	}

	remaining := slices.DeleteFunc(slices.Clone(r.registered), func(p Plugin) bool { return p.Name() == name })
	order, err := computeOrder(remaining)
	if err != nil {
		// Removing a node cannot introduce a cycle.
		return err
	}

	delete(r.plugins, name)
	r.bus.Unregister(name)
	r.registered = remaining
	r.order = order
	r.logger.Debug("plugin unregistered", logfields.Plugin(name))
	return nil
}

func computeOrder(plugins []Plugin) ([]Plugin, error) {
	names, err := newGraph(plugins).order()
	if err != nil {
		return nil, err
	}
	byName := make(map[string]Plugin, len(plugins))
	for _, p := range plugins {
		byName[p.Name()] = p
	}
	order := make([]Plugin, 0, len(names))
	for _, n := range names {
		order = append(order, byName[n])
	}
	return order, nil
}

// Plugin returns the plugin registered under name.
func (r *Registry) Plugin(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	return p, ok
}

// Plugins returns every registered plugin in registration order.
func (r *Registry) Plugins() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.registered)
}

// Len returns the number of registered plugins.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.registered)
}

// ExecutionOrder returns plugin names in the order they are considered
// for execution.
func (r *Registry) ExecutionOrder() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.order))
	for _, p := range r.order {
		names = append(names, p.Name())
	}
	return names
}

// ApplicablePlugins returns, in execution order, the plugins whose
// CanHandle accepts cfg.
func (r *Registry) ApplicablePlugins(cfg *models.ProjectConfig) []Plugin {
	r.mu.RLock()
	order := slices.Clone(r.order)
	r.mu.RUnlock()

	var out []Plugin
	for _, p := range order {
		ok, err := canHandle(p, cfg)
		if err != nil {
			r.logger.Warn("plugin predicate failed", logfields.Plugin(p.Name()), logfields.Error(err))
			continue
		}
		if ok {
			out = append(out, p)
		}
	}
	return out
}

// Hooks returns the hook bus the registry wires plugin handlers into.
func (r *Registry) Hooks() *HookBus {
	return r.bus
}

// HookCount returns the number of wired hook handlers.
func (r *Registry) HookCount() int {
	return r.bus.Total()
}

// Warnings returns registration warnings accumulated so far.
func (r *Registry) Warnings() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.warnings)
}

// RegistryStats summarizes registry contents.
type RegistryStats struct {
	Plugins        int
	Hooks          int
	ExecutionOrder []string
}

// Stats returns a snapshot of registry contents.
func (r *Registry) Stats() RegistryStats {
	return RegistryStats{
		Plugins:        r.Len(),
		Hooks:          r.HookCount(),
		ExecutionOrder: r.ExecutionOrder(),
	}
}

// ExecutePlugins runs every applicable plugin once, in execution order.
// A plugin failure is recorded and the pass continues. Cancelling ctx
// stops the pass; applicable plugins not yet started are recorded as
// failed with the context error. Initialized plugins are cleaned up in
// reverse order before returning, and cleanup errors become warnings.
//
// There is no per-plugin timeout: a plugin that blocks without honouring
// ctx blocks the pass.
func (r *Registry) ExecutePlugins(ctx context.Context, cfg *models.ProjectConfig, gc *GenerationContext) *ExecutionResult {
	if gc == nil {
		gc = NewGenerationContext(cfg, WithLogger(r.logger))
	}

	r.mu.RLock()
	order := slices.Clone(r.order)
	applicableDeps := r.applicableDeps
	r.mu.RUnlock()

	logger := gc.Logger.With(logfields.RunID(gc.RunID))
	result := &ExecutionResult{}

	applicable := make(map[string]bool, len(order))
	for _, p := range order {
		ok, err := canHandle(p, cfg)
		if err != nil {
			logger.Error("plugin predicate failed", logfields.Plugin(p.Name()), logfields.Error(err))
			result.Failed = append(result.Failed, PluginFailure{Plugin: p.Name(), Err: fmt.Errorf("can handle: %w", err)})
		}
		applicable[p.Name()] = ok
	}
	var initialized []Plugin

	for i, p := range order {
		name := p.Name()
		if !applicable[name] {
			logger.Debug("plugin not applicable", logfields.Plugin(name))
			continue
		}

		if err := ctx.Err(); err != nil {
			for _, rest := range order[i:] {
				if applicable[rest.Name()] {
					result.Failed = append(result.Failed, PluginFailure{
						Plugin: rest.Name(),
						Err:    fmt.Errorf("plugin %q not started: %w", rest.Name(), err),
					})
				}
			}
			break
		}

		if applicableDeps {
			if dep, ok := inapplicableDependency(p, applicable); ok {
				applicable[name] = false
				msg := fmt.Sprintf("plugin %q skipped: dependency %q is not applicable", name, dep)
				logger.Warn(msg, logfields.Plugin(name))
				result.Warnings = append(result.Warnings, msg)
				continue
			}
		}

		start := time.Now()
		if err := guard(func() error { return p.Initialize(ctx, gc) }); err != nil {
			logger.Error("plugin initialize failed", logfields.Plugin(name), logfields.Error(err))
			result.Failed = append(result.Failed, PluginFailure{Plugin: name, Err: fmt.Errorf("initialize: %w", err)})
			continue
		}
		initialized = append(initialized, p)

		var out any
		err := guard(func() error {
			var execErr error
			out, execErr = p.Execute(ctx, cfg, gc)
			return execErr
		})
		if err != nil {
			logger.Error("plugin failed", logfields.Plugin(name), logfields.Duration(time.Since(start)), logfields.Error(err))
			result.Failed = append(result.Failed, PluginFailure{Plugin: name, Err: err})
			continue
		}
		logger.Debug("plugin executed", logfields.Plugin(name), logfields.Duration(time.Since(start)))
		result.Success = append(result.Success, PluginSuccess{Plugin: name, Result: out})
	}

	for _, p := range slices.Backward(initialized) {
		if err := guard(func() error { return p.Cleanup(ctx) }); err != nil {
			msg := fmt.Sprintf("plugin %q cleanup: %v", p.Name(), err)
			logger.Warn(msg, logfields.Plugin(p.Name()))
			result.Warnings = append(result.Warnings, msg)
		}
	}
	return result
}

// inapplicableDependency returns the first registered dependency of p that
// will not run. Unregistered names are ignored.
func inapplicableDependency(p Plugin, applicable map[string]bool) (string, bool) {
	for _, dep := range p.Dependencies() {
		ok, registered := applicable[dep]
		if registered && !ok {
			return dep, true
		}
	}
	return "", false
}

// canHandle evaluates the predicate of p, reporting a panic as an error.
func canHandle(p Plugin, cfg *models.ProjectConfig) (ok bool, err error) {
	err = guard(func() error {
		ok = p.CanHandle(cfg)
		return nil
	})
	return ok, err
}

// guard runs fn, converting a panic into ErrPluginPanic.
func guard(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrPluginPanic, rec)
		}
	}()
	return fn()
}
