package stack

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/stackgen/stackgen/internal/plugin"
	"github.com/stackgen/stackgen/internal/templates"
	"github.com/stackgen/stackgen/pkg/models"
)

// docsDir is where the docs addon writes its pages.
const docsDir = "docs"

const pageShell = `<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>%s</title></head>
<body>
%s</body>
</html>
`

// docs deploys the markdown pages of the docs addon and renders them,
// together with the project README, to static HTML.
type docs struct {
	templated
	md goldmark.Markdown
}

func newDocs(opts Options) plugin.Plugin {
	d := &docs{
		templated: templated{
			Base: plugin.NewBase(plugin.Meta{
				Name: NameDocs, Version: Version, Priority: 70, Dependencies: []string{NameBase},
			}),
			opts: opts,
			when: func(cfg *models.ProjectConfig) bool { return cfg.HasAddon(models.AddonDocs) },
			dirs: func(*models.ProjectConfig) []string {
				return []string{templates.Dir("addons", string(models.AddonDocs))}
			},
		},
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
	return d
}

func (d *docs) Execute(ctx context.Context, cfg *models.ProjectConfig, gc *plugin.GenerationContext) (any, error) {
	res, err := d.templated.Execute(ctx, cfg, gc)
	if err != nil {
		return res, err
	}
	out := res.(*Deployment)

	pages := map[string]string{"README.md": filepath.Join(docsDir, "index.html")}
	entries, err := os.ReadDir(filepath.Join(gc.ProjectDir, docsDir))
	if err != nil {
		return out, fmt.Errorf("read docs dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		src := filepath.Join(docsDir, e.Name())
		pages[src] = strings.TrimSuffix(src, ".md") + ".html"
	}

	for _, src := range slices.Sorted(maps.Keys(pages)) {
		dst := pages[src]
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if err := d.renderPage(gc.ProjectDir, src, dst); err != nil {
			if os.IsNotExist(err) {
				gc.Warn(fmt.Sprintf("%s: %s not found, skipped", NameDocs, src))
				continue
			}
			return out, err
		}
		rel := filepath.ToSlash(dst)
		out.Written = append(out.Written, rel)
		gc.AddFiles(rel)
	}
	return out, nil
}

func (d *docs) renderPage(root, src, dst string) error {
	source, err := os.ReadFile(filepath.Join(root, src))
	if err != nil {
		return err
	}
	var body bytes.Buffer
	if err := d.md.Convert(source, &body); err != nil {
		return fmt.Errorf("render %s: %w", src, err)
	}
	title := html.EscapeString(pageTitle(source, src))
	page := fmt.Sprintf(pageShell, title, body.String())
	if err := os.WriteFile(filepath.Join(root, dst), []byte(page), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return nil
}

// pageTitle uses the first ATX heading of a page as its title.
func pageTitle(source []byte, fallback string) string {
	for line := range strings.SplitSeq(string(source), "\n") {
		if t, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSpace(t)
		}
	}
	return fallback
}
