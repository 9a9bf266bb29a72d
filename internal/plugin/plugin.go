package plugin

import (
	"context"

	"github.com/stackgen/stackgen/pkg/models"
)

// Well-known hook names fired by the generator.
const (
	HookPreGenerate    = "preGenerate"
	HookPostGenerate   = "postGenerate"
	HookValidateConfig = "validateConfig"
)

// Plugin is an independently registered unit of generation logic.
//
// CanHandle must be a pure predicate: the registry may call it more than
// once per run. Errors returned from Initialize or Execute are recorded by
// the registry and never abort the pass.
type Plugin interface {
	// Name returns the unique plugin name.
	Name() string

	// Version returns an informational semantic version.
	Version() string

	// Priority orders plugins that have no dependency relationship.
	// Lower values run earlier.
	Priority() int

	// Dependencies lists plugin names that must run before this one.
	Dependencies() []string

	// Hooks maps hook names to the handlers this plugin contributes.
	Hooks() map[string][]HookFunc

	// CanHandle reports whether the plugin applies to cfg.
	CanHandle(cfg *models.ProjectConfig) bool

	// Initialize prepares the plugin for one run.
	Initialize(ctx context.Context, gc *GenerationContext) error

	// Execute performs the plugin's unit of work.
	Execute(ctx context.Context, cfg *models.ProjectConfig, gc *GenerationContext) (any, error)

	// Cleanup releases anything acquired in Initialize or Execute.
	Cleanup(ctx context.Context) error
}

// Meta is the static identity of a plugin.
type Meta struct {
	Name         string
	Version      string
	Priority     int
	Dependencies []string
}

// Base supplies metadata accessors and no-op lifecycle methods. Embed it
// and override what the plugin needs:
//
//	type readme struct{ plugin.Base }
//
//	func (readme) Execute(ctx context.Context, cfg *models.ProjectConfig, gc *plugin.GenerationContext) (any, error) {
//	    ...
//	}
type Base struct {
	Meta
	HookMap map[string][]HookFunc
}

// NewBase creates a Base from metadata.
func NewBase(meta Meta) Base {
	return Base{Meta: meta}
}

func (b Base) Name() string                 { return b.Meta.Name }
func (b Base) Version() string              { return b.Meta.Version }
func (b Base) Priority() int                { return b.Meta.Priority }
func (b Base) Dependencies() []string       { return b.Meta.Dependencies }
func (b Base) Hooks() map[string][]HookFunc { return b.HookMap }

// CanHandle defaults to true.
func (Base) CanHandle(*models.ProjectConfig) bool { return true }

func (Base) Initialize(context.Context, *GenerationContext) error { return nil }

func (Base) Execute(context.Context, *models.ProjectConfig, *GenerationContext) (any, error) {
	return nil, nil
}

func (Base) Cleanup(context.Context) error { return nil }

// Func adapts plain functions into a Plugin. Nil fields fall back to the
// Base defaults. It is mostly useful for hosts and tests that do not want
// to declare a type per plugin.
type Func struct {
	Base
	When      func(cfg *models.ProjectConfig) bool
	OnInit    func(ctx context.Context, gc *GenerationContext) error
	OnExecute func(ctx context.Context, cfg *models.ProjectConfig, gc *GenerationContext) (any, error)
	OnCleanup func(ctx context.Context) error
}

// CanHandle implements Plugin.
func (f *Func) CanHandle(cfg *models.ProjectConfig) bool {
	if f.When == nil {
		return true
	}
	return f.When(cfg)
}

// Initialize implements Plugin.
func (f *Func) Initialize(ctx context.Context, gc *GenerationContext) error {
	if f.OnInit == nil {
		return nil
	}
	return f.OnInit(ctx, gc)
}

// Execute implements Plugin.
func (f *Func) Execute(ctx context.Context, cfg *models.ProjectConfig, gc *GenerationContext) (any, error) {
	if f.OnExecute == nil {
		return nil, nil
	}
	return f.OnExecute(ctx, cfg, gc)
}

// Cleanup implements Plugin.
func (f *Func) Cleanup(ctx context.Context) error {
	if f.OnCleanup == nil {
		return nil
	}
	return f.OnCleanup(ctx)
}
