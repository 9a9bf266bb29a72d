package config

import (
	"time"

	"github.com/stackgen/stackgen/pkg/models"
)

// Config is the root configuration, one field per stackgen.yaml section.
type Config struct {
	Defaults StackDefaults  `yaml:"defaults"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Plugins  PluginsConfig  `yaml:"plugins"`
	Git      GitConfig      `yaml:"git"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// StackDefaults preselects stack options. Command-line flags and wizard
// answers take precedence.
type StackDefaults struct {
	Database       models.Database       `yaml:"database"`
	ORM            models.ORM            `yaml:"orm"`
	Backend        models.Backend        `yaml:"backend"`
	Frontend       []models.Frontend     `yaml:"frontend"`
	Auth           models.Auth           `yaml:"auth"`
	Addons         []models.Addon        `yaml:"addons"`
	PackageManager models.PackageManager `yaml:"package_manager"`
	Git            bool                  `yaml:"git"`
	Install        bool                  `yaml:"install"`
	DatabaseURL    string                `yaml:"database_url,omitempty"`
	RedisURL       string                `yaml:"redis_url,omitempty"`
}

// PipelineConfig tunes the create pipeline.
type PipelineConfig struct {
	// Stages overrides timeout and retries per stage name.
	Stages      map[string]StageConfig `yaml:"stages"`
	BackoffBase time.Duration          `yaml:"backoff_base"`
	BackoffMax  time.Duration          `yaml:"backoff_max"`
}

// StageConfig overrides the settings of one stage. Zero values keep the
// stage's own defaults.
type StageConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Retries *int          `yaml:"retries"`
}

// PluginsConfig controls registry policy and declares custom plugins.
type PluginsConfig struct {
	// LenientDependencies warns about missing dependencies instead of
	// rejecting the registration.
	LenientDependencies bool `yaml:"lenient_dependencies"`

	// ApplicableDependencies skips a plugin whose dependency does not apply.
	ApplicableDependencies bool `yaml:"applicable_dependencies"`

	Custom []CustomPlugin `yaml:"custom"`
}

// CustomPlugin declares a template plugin read from disk.
type CustomPlugin struct {
	Name            string            `yaml:"name"`
	Version         string            `yaml:"version"`
	Priority        int               `yaml:"priority"`
	DependsOn       []string          `yaml:"depends_on"`
	Dir             string            `yaml:"dir"`
	When            string            `yaml:"when"`
	Dependencies    map[string]string `yaml:"dependencies"`
	DevDependencies map[string]string `yaml:"dev_dependencies"`
	Scripts         map[string]string `yaml:"scripts"`
}

// GitConfig sets the author of the initial commit.
type GitConfig struct {
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
	Branch      string `yaml:"branch"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig enables the Prometheus textfile export.
type MetricsConfig struct {
	// Textfile is written after each run when set.
	Textfile string `yaml:"textfile"`
}

// Stage returns the override for a stage name.
func (p PipelineConfig) Stage(name string) (StageConfig, bool) {
	sc, ok := p.Stages[name]
	return sc, ok
}

// ProjectConfig builds a project configuration from the stack defaults.
func (c *Config) ProjectConfig(name string) *models.ProjectConfig {
	d := c.Defaults
	return &models.ProjectConfig{
		ProjectName:    name,
		Database:       d.Database,
		ORM:            d.ORM,
		Backend:        d.Backend,
		Frontend:       append([]models.Frontend(nil), d.Frontend...),
		Auth:           d.Auth,
		Addons:         append([]models.Addon(nil), d.Addons...),
		PackageManager: d.PackageManager,
		Git:            d.Git,
		Install:        d.Install,
		DatabaseURL:    d.DatabaseURL,
		RedisURL:       d.RedisURL,
	}
}
