package template

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// dotfilePrefix marks files that are stored without their leading dot,
// since package registries strip dotfiles such as .gitignore.
const dotfilePrefix = "_"

// DeployResult lists the files a deployment processed, as slash-separated
// paths relative to the project root.
type DeployResult struct {
	Written []string
	Skipped []string // existing files left untouched
}

// Deployer renders or copies a template directory into a project.
type Deployer interface {
	// Deploy walks dir in the template filesystem and writes every file
	// under projectRoot. Files ending in .tmpl are rendered with tmplCtx
	// and saved without the suffix; a leading "_" in a file name becomes
	// a dot. Existing files are skipped unless the deployer overwrites.
	Deploy(ctx context.Context, dir, projectRoot string, tmplCtx *TemplateContext) (*DeployResult, error)

	// ListTemplates returns the destination paths Deploy would write for dir.
	ListTemplates(dir string) ([]string, error)

	// Exists reports whether dir is present in the template filesystem.
	Exists(dir string) bool
}

type deployer struct {
	fsys      fs.FS
	renderer  Renderer
	overwrite bool
}

// DeployerOption configures a Deployer.
type DeployerOption func(*deployer)

// WithOverwrite replaces existing files instead of skipping them.
func WithOverwrite(overwrite bool) DeployerOption {
	return func(d *deployer) {
		d.overwrite = overwrite
	}
}

// NewDeployer creates a Deployer backed by the given filesystem.
// In production the fs.FS comes from go:embed; in tests use testing/fstest.MapFS.
func NewDeployer(fsys fs.FS, opts ...DeployerOption) Deployer {
	d := &deployer{fsys: fsys, renderer: NewRenderer(fsys)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Deploy writes the template directory dir into projectRoot.
func (d *deployer) Deploy(ctx context.Context, dir, projectRoot string, tmplCtx *TemplateContext) (*DeployResult, error) {
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}
	res := &DeployResult{}

	err = fs.WalkDir(d.fsys, dir, func(src string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel := destinationPath(relativeTo(dir, src))
		local, err := localPath(rel)
		if err != nil {
			return err
		}
		dest := filepath.Join(root, local)
		if !d.overwrite && fileExists(dest) {
			res.Skipped = append(res.Skipped, rel)
			return nil
		}

		content, err := d.content(src, tmplCtx)
		if err != nil {
			return err
		}
		if err := writeFile(dest, content, modeFor(rel)); err != nil {
			return err
		}
		res.Written = append(res.Written, rel)
		return nil
	})
	return res, err
}

// content renders .tmpl sources and returns everything else verbatim.
func (d *deployer) content(src string, tmplCtx *TemplateContext) ([]byte, error) {
	if !strings.HasSuffix(src, ".tmpl") {
		raw, err := fs.ReadFile(d.fsys, src)
		if err != nil {
			return nil, fmt.Errorf("read template %q: %w", src, err)
		}
		return raw, nil
	}
	if tmplCtx == nil {
		return nil, fmt.Errorf("render %q: no template context", src)
	}
	out, err := d.renderer.Render(src, tmplCtx)
	if err != nil {
		return nil, fmt.Errorf("render %q: %w", src, err)
	}
	return out, nil
}

func writeFile(dest string, content []byte, perm fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create %q: %w", filepath.Dir(dest), err)
	}
	if err := os.WriteFile(dest, content, perm); err != nil {
		return fmt.Errorf("write %q: %w", dest, err)
	}
	return nil
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// modeFor makes shell scripts and husky hooks executable.
func modeFor(rel string) fs.FileMode {
	if strings.HasSuffix(rel, ".sh") || strings.HasPrefix(rel, ".husky/") {
		return 0o755
	}
	return 0o644
}

// ListTemplates returns sorted destination paths for dir.
func (d *deployer) ListTemplates(dir string) ([]string, error) {
	var list []string
	err := fs.WalkDir(d.fsys, dir, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		list = append(list, destinationPath(relativeTo(dir, p)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, dir)
	}
	slices.Sort(list)
	return list, nil
}

// Exists reports whether dir is a directory in the template filesystem.
func (d *deployer) Exists(dir string) bool {
	info, err := fs.Stat(d.fsys, dir)
	return err == nil && info.IsDir()
}

func relativeTo(dir, p string) string {
	if dir == "." || dir == "" {
		return p
	}
	return strings.TrimPrefix(p, dir+"/")
}

// destinationPath maps a template path to its path in the project:
// the .tmpl suffix is dropped and a "_" file-name prefix becomes a dot.
func destinationPath(rel string) string {
	rel = strings.TrimSuffix(rel, ".tmpl")
	dir, file := path.Split(rel)
	if strings.HasPrefix(file, dotfilePrefix) {
		file = "." + strings.TrimPrefix(file, dotfilePrefix)
	}
	return dir + file
}

// localPath converts a slash-separated destination into an OS path that
// stays inside the project root.
func localPath(rel string) (string, error) {
	p := filepath.FromSlash(rel)
	if !filepath.IsLocal(p) {
		return "", fmt.Errorf("%w: %q leaves the project root", ErrPathTraversal, rel)
	}
	return filepath.Clean(p), nil
}
