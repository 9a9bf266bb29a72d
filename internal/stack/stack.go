// Package stack provides the built-in generation plugins: one per stack
// concern (base, database, ORM, backend, frontend, auth, addons, docs)
// plus the hook-only plugins that validate the configuration, write the
// merged package.json and report plugin outcomes.
package stack

import (
	"io"
	"log/slog"

	"github.com/stackgen/stackgen/internal/metrics"
	"github.com/stackgen/stackgen/internal/plugin"
	"github.com/stackgen/stackgen/internal/template"
	"github.com/stackgen/stackgen/internal/templates"
)

// Built-in plugin names.
const (
	NameBase      = "base"
	NameDatabase  = "database"
	NameORM       = "orm"
	NameBackend   = "backend"
	NameFrontend  = "frontend"
	NameAuth      = "auth"
	NameAddons    = "addons"
	NameDocs      = "docs"
	NameValidator = "validator"
	NameManifest  = "manifest"
	NameMetrics   = "metrics"
)

// Version is reported by every built-in plugin.
const Version = "1.0.0"

// Options carries the collaborators shared by the built-in plugins.
type Options struct {
	// Deployer renders template directories. Defaults to the embedded tree.
	Deployer template.Deployer

	// ToolVersion is recorded in generated files.
	ToolVersion string

	// Recorder receives one result per executed plugin. Nil disables the
	// metrics plugin.
	Recorder metrics.Recorder

	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Deployer == nil {
		o.Deployer = template.NewDeployer(templates.FS())
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// Builtins returns the built-in plugins in registration order.
func Builtins(opts Options) []plugin.Plugin {
	opts = opts.withDefaults()

	plugins := []plugin.Plugin{
		newValidator(),
		newBase(opts),
		newDatabase(opts),
		newORM(opts),
		newBackend(opts),
		newFrontend(opts),
		newAuth(opts),
		newAddons(opts),
		newDocs(opts),
		newManifestWriter(opts),
	}
	if opts.Recorder != nil {
		plugins = append(plugins, newMetrics(opts.Recorder))
	}
	return plugins
}
