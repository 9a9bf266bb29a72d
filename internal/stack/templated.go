package stack

import (
	"context"
	"fmt"

	"github.com/stackgen/stackgen/internal/manifest"
	"github.com/stackgen/stackgen/internal/plugin"
	"github.com/stackgen/stackgen/internal/template"
	"github.com/stackgen/stackgen/pkg/models"
)

// keyTemplateContext caches the rendering context on the generation context
// so every plugin in a run renders with identical metadata.
const keyTemplateContext = "template.context"

// Deployment is the result a templated plugin reports.
type Deployment struct {
	Dirs    []string
	Written []string
	Skipped []string
}

// templated deploys one or more template directories and merges the
// matching package.json fragments.
type templated struct {
	plugin.Base
	opts      Options
	when      func(cfg *models.ProjectConfig) bool
	dirs      func(cfg *models.ProjectConfig) []string
	fragments func(cfg *models.ProjectConfig) []manifest.Fragment
}

func (t *templated) CanHandle(cfg *models.ProjectConfig) bool {
	if t.when == nil {
		return true
	}
	return t.when(cfg)
}

func (t *templated) Execute(ctx context.Context, cfg *models.ProjectConfig, gc *plugin.GenerationContext) (any, error) {
	out := &Deployment{}
	tc := templateContext(gc, t.opts.ToolVersion)

	if t.dirs != nil {
		for _, dir := range t.dirs(cfg) {
			if !t.opts.Deployer.Exists(dir) {
				continue
			}
			res, err := t.opts.Deployer.Deploy(ctx, dir, gc.ProjectDir, tc)
			if err != nil {
				return out, fmt.Errorf("deploy %s: %w", dir, err)
			}
			out.Dirs = append(out.Dirs, dir)
			out.Written = append(out.Written, res.Written...)
			out.Skipped = append(out.Skipped, res.Skipped...)
			for _, f := range res.Skipped {
				gc.Warn(fmt.Sprintf("%s: kept existing %s", t.Name(), f))
			}
		}
		gc.AddFiles(out.Written...)
	}

	if t.fragments != nil && gc.Manifest != nil {
		for _, frag := range t.fragments(cfg) {
			if err := gc.Manifest.Merge(frag); err != nil {
				return out, fmt.Errorf("merge manifest: %w", err)
			}
		}
	}
	return out, nil
}

// templateContext returns the run's rendering context, creating it on
// first use.
func templateContext(gc *plugin.GenerationContext, version string) *template.TemplateContext {
	if v, ok := gc.Get(keyTemplateContext); ok {
		if tc, ok := v.(*template.TemplateContext); ok {
			return tc
		}
	}
	tc := template.NewTemplateContext(gc.Config,
		template.WithVersion(version),
		template.WithCreatedAt(gc.StartedAt),
	)
	gc.Set(keyTemplateContext, tc)
	return tc
}

func deps(kv ...string) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i]] = kv[i+1]
	}
	return m
}
