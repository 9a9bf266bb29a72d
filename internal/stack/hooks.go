package stack

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/stackgen/stackgen/internal/manifest"
	"github.com/stackgen/stackgen/internal/metrics"
	"github.com/stackgen/stackgen/internal/plugin"
	"github.com/stackgen/stackgen/pkg/models"
)

// projectNamePattern follows the npm package name rules for unscoped names.
var projectNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// hookOnly is a plugin that contributes hooks and never executes work.
type hookOnly struct {
	plugin.Base
}

// CanHandle is false so the plugin never appears in a pass.
func (hookOnly) CanHandle(*models.ProjectConfig) bool { return false }

func newValidator() plugin.Plugin {
	p := &hookOnly{Base: plugin.NewBase(plugin.Meta{Name: NameValidator, Version: Version, Priority: -100})}
	p.HookMap = map[string][]plugin.HookFunc{
		plugin.HookValidateConfig: {validateFields},
	}
	return p
}

// validateFields reports unknown option values and an unusable project
// name. It appends to hc.Errors rather than failing so every problem is
// reported at once.
func validateFields(_ context.Context, hc *plugin.HookContext) (*plugin.HookContext, error) {
	cfg := hc.Config
	if cfg == nil {
		hc.Errors = append(hc.Errors, "configuration is required")
		return hc, nil
	}

	name := strings.TrimSpace(cfg.ProjectName)
	switch {
	case name == "":
		hc.Errors = append(hc.Errors, "project name is required")
	case len(name) > 214:
		hc.Errors = append(hc.Errors, "project name must be at most 214 characters")
	case !projectNamePattern.MatchString(name):
		hc.Errors = append(hc.Errors, fmt.Sprintf("project name %q must be lowercase and contain only letters, digits, '.', '_' or '-'", name))
	}

	check := func(field, value string, ok bool) {
		if value != "" && !ok {
			hc.Errors = append(hc.Errors, fmt.Sprintf("unknown %s %q", field, value))
		}
	}
	check("database", string(cfg.Database), cfg.Database.IsValid())
	check("orm", string(cfg.ORM), cfg.ORM.IsValid())
	check("backend", string(cfg.Backend), cfg.Backend.IsValid())
	check("auth", string(cfg.Auth), cfg.Auth.IsValid())
	check("package manager", string(cfg.PackageManager), cfg.PackageManager.IsValid())
	for _, f := range cfg.Frontend {
		check("frontend", string(f), f.IsValid())
	}
	for _, a := range cfg.Addons {
		check("addon", string(a), a.IsValid())
	}

	if cfg.Install && cfg.PackageManager == "" {
		hc.Warnings = append(hc.Warnings, "no package manager selected, npm will be used")
	}
	if hc.Data != nil {
		hc.Data[NameValidator] = len(hc.Errors) == 0
	}
	return hc, nil
}

func newManifestWriter(opts Options) plugin.Plugin {
	p := &hookOnly{Base: plugin.NewBase(plugin.Meta{Name: NameManifest, Version: Version, Priority: 1000})}
	p.HookMap = map[string][]plugin.HookFunc{
		plugin.HookPostGenerate: {func(_ context.Context, hc *plugin.HookContext) (*plugin.HookContext, error) {
			gc := hc.Generation
			if gc == nil || gc.Manifest == nil || gc.ProjectDir == "" {
				return hc, nil
			}
			if _, err := gc.Manifest.WriteFile(gc.ProjectDir); err != nil {
				return nil, err
			}
			gc.AddFiles(manifest.FileName)
			opts.Logger.Debug("manifest written", "dir", gc.ProjectDir, "dependencies", len(gc.Manifest.Dependencies()))
			return hc, nil
		}},
	}
	return p
}

func newMetrics(rec metrics.Recorder) plugin.Plugin {
	p := &hookOnly{Base: plugin.NewBase(plugin.Meta{Name: NameMetrics, Version: Version, Priority: 1001})}
	p.HookMap = map[string][]plugin.HookFunc{
		plugin.HookPostGenerate: {func(_ context.Context, hc *plugin.HookContext) (*plugin.HookContext, error) {
			if hc.Results == nil {
				return hc, nil
			}
			for _, s := range hc.Results.Success {
				rec.IncPluginResult(s.Plugin, true)
			}
			for _, f := range hc.Results.Failed {
				rec.IncPluginResult(f.Plugin, false)
			}
			return nil, nil
		}},
	}
	return p
}
