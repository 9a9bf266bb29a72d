package template

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/stackgen/stackgen/pkg/models"
)

// TemplateContext provides data for rendering project templates.
// All fields are exported for use with Go's text/template package.
type TemplateContext struct {
	// Project
	ProjectName string
	DisplayName string // "my-app" -> "My App"

	// Stack
	Database string
	ORM      string
	Backend  string
	Frontend []string
	Auth     string
	Addons   []string

	// Tooling
	PackageManager string
	RunCmd         string // "npm run", "pnpm", "bun run"
	Git            bool

	// Meta
	Version   string // stackgen version
	Year      int
	CreatedAt string // RFC 3339
}

// ContextOption configures a TemplateContext.
type ContextOption func(*TemplateContext)

// NewTemplateContext builds the rendering context for cfg, then applies
// any provided options.
func NewTemplateContext(cfg *models.ProjectConfig, opts ...ContextOption) *TemplateContext {
	now := time.Now()
	c := &TemplateContext{
		ProjectName:    cfg.ProjectName,
		DisplayName:    DisplayName(cfg.ProjectName),
		Database:       string(cfg.Database),
		ORM:            string(cfg.ORM),
		Backend:        string(cfg.Backend),
		Auth:           string(cfg.Auth),
		PackageManager: string(cfg.PackageManager),
		RunCmd:         RunCommand(cfg.PackageManager),
		Git:            cfg.Git,
		Year:           now.Year(),
		CreatedAt:      now.UTC().Format(time.RFC3339),
	}
	for _, f := range cfg.Frontend {
		c.Frontend = append(c.Frontend, string(f))
	}
	for _, a := range cfg.Addons {
		c.Addons = append(c.Addons, string(a))
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithVersion sets the stackgen version recorded in generated files.
func WithVersion(version string) ContextOption {
	return func(c *TemplateContext) {
		c.Version = version
	}
}

// WithCreatedAt pins the creation time, mainly for reproducible output.
func WithCreatedAt(t time.Time) ContextOption {
	return func(c *TemplateContext) {
		c.Year = t.Year()
		c.CreatedAt = t.UTC().Format(time.RFC3339)
	}
}

// DisplayName turns a package-style name into a title.
func DisplayName(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || r == ' '
	})
	return cases.Title(language.English).String(strings.Join(words, " "))
}

// RunCommand returns the script runner prefix for a package manager.
func RunCommand(pm models.PackageManager) string {
	switch pm {
	case models.PackageManagerPNPM:
		return "pnpm"
	case models.PackageManagerBun:
		return "bun run"
	default:
		return "npm run"
	}
}
