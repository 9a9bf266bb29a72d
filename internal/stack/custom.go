package stack

import (
	"errors"
	"fmt"
	"os"

	"github.com/stackgen/stackgen/internal/manifest"
	"github.com/stackgen/stackgen/internal/plugin"
	"github.com/stackgen/stackgen/internal/rules"
	"github.com/stackgen/stackgen/internal/template"
	"github.com/stackgen/stackgen/pkg/models"
)

// ErrInvalidCustomPlugin indicates a custom plugin declaration is unusable.
var ErrInvalidCustomPlugin = errors.New("stack: invalid custom plugin")

// CustomSpec declares a template plugin outside the built-in set. Its
// templates are read from a directory on disk.
type CustomSpec struct {
	Name         string
	Version      string
	Priority     int
	Dependencies []string

	// Dir is the template directory deployed into the project.
	Dir string

	// When is a CEL expression over the project facts, for example
	// `database == "sqlite" && "docs" in addons`. Empty means always.
	When string

	// Packages are merged into the manifest "dependencies" section.
	Packages map[string]string
	// DevPackages are merged into "devDependencies".
	DevPackages map[string]string
	Scripts     map[string]string
}

// Custom builds plugins from declarations. Every When expression is
// compiled up front so a bad rule fails before generation starts.
func Custom(specs []CustomSpec, opts Options) ([]plugin.Plugin, error) {
	opts = opts.withDefaults()
	if len(specs) == 0 {
		return nil, nil
	}

	engine, err := rules.NewEngine()
	if err != nil {
		return nil, err
	}

	out := make([]plugin.Plugin, 0, len(specs))
	var errs []error
	for _, spec := range specs {
		p, err := newCustom(spec, engine, opts)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, p)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

func newCustom(spec CustomSpec, engine *rules.Engine, opts Options) (plugin.Plugin, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidCustomPlugin)
	}
	info, err := os.Stat(spec.Dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s: template dir %q not found", ErrInvalidCustomPlugin, spec.Name, spec.Dir)
	}

	var rule *rules.Rule
	if spec.When != "" {
		rule, err = engine.Compile(spec.When)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidCustomPlugin, spec.Name, err)
		}
	}

	version := spec.Version
	if version == "" {
		version = "0.0.0"
	}
	local := opts
	local.Deployer = template.NewDeployer(os.DirFS(spec.Dir))

	frag := manifest.Fragment{}
	for section, values := range map[string]map[string]string{
		"dependencies":    spec.Packages,
		"devDependencies": spec.DevPackages,
		"scripts":         spec.Scripts,
	} {
		if len(values) == 0 {
			continue
		}
		m := make(map[string]any, len(values))
		for k, v := range values {
			m[k] = v
		}
		frag[section] = m
	}

	return &templated{
		Base: plugin.NewBase(plugin.Meta{
			Name:         spec.Name,
			Version:      version,
			Priority:     spec.Priority,
			Dependencies: spec.Dependencies,
		}),
		opts: local,
		when: func(cfg *models.ProjectConfig) bool {
			return rule == nil || rule.Matches(cfg)
		},
		dirs: func(*models.ProjectConfig) []string { return []string{"."} },
		fragments: func(*models.ProjectConfig) []manifest.Fragment {
			if len(frag) == 0 {
				return nil
			}
			return []manifest.Fragment{frag}
		},
	}, nil
}
