// Package cli provides the Cobra command tree for stackgen. This file
// defines the Dependencies struct (Composition Root) that wires the
// domain packages together.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/stackgen/stackgen/internal/cli/wizard"
	"github.com/stackgen/stackgen/internal/config"
	"github.com/stackgen/stackgen/internal/metrics"
	"github.com/stackgen/stackgen/internal/pkgmgr"
	"github.com/stackgen/stackgen/internal/probe"
	"github.com/stackgen/stackgen/internal/template"
	"github.com/stackgen/stackgen/internal/ui"
	"github.com/stackgen/stackgen/pkg/models"
)

// PromptFunc asks the given questions and writes the answers into cfg.
type PromptFunc func(ctx context.Context, questions []wizard.Question, cfg *models.ProjectConfig) error

// Dependencies holds the services used by CLI commands. This is the
// only place where concrete types are instantiated and wired together.
type Dependencies struct {
	Loader   *config.Loader
	Config   *config.Config
	Logger   *slog.Logger
	Theme    *ui.Theme
	Headless *ui.HeadlessManager
	Metrics  *metrics.PrometheusRecorder
	Tracing  *sdktrace.TracerProvider

	Prober    *probe.Prober
	Installer *pkgmgr.Installer

	// Deployer overrides the embedded template tree when set.
	Deployer template.Deployer

	Prompt PromptFunc
}

// deps is the global dependencies instance, initialized by InitDependencies.
var deps *Dependencies

// InitDependencies creates the dependencies that need no configuration.
// Config-dependent services are wired by EnsureConfig and
// ConfigureLogging once a command knows its working directory and flags.
func InitDependencies() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	deps = &Dependencies{
		Loader:   config.NewLoader(config.WithLoaderLogger(logger)),
		Logger:   logger,
		Theme:    ui.NewTheme(false),
		Headless: ui.NewHeadlessManager(),
		Metrics:  metrics.NewPrometheusRecorder(nil),
		Prompt:   wizard.Run,
	}
}

// GetDeps returns the current Dependencies instance.
// Returns nil if InitDependencies has not been called.
func GetDeps() *Dependencies {
	return deps
}

// SetDeps replaces the global dependencies (used for testing).
func SetDeps(d *Dependencies) {
	deps = d
}

// EnsureConfig loads the configuration for dir once. path names an
// explicit file; empty means dir/stackgen.yaml when present.
func (d *Dependencies) EnsureConfig(dir, path string) error {
	if d.Config != nil {
		return nil
	}
	if d.Loader == nil {
		d.Loader = config.NewLoader()
	}
	cfg, err := d.Loader.Load(dir, path)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	d.Config = cfg
	return nil
}

// ConfigureLogging installs the logger selected by the configuration and
// the --verbose and --log-format flags, then builds the services that
// take a logger. Logging stays off unless one of them asks for it.
func (d *Dependencies) ConfigureLogging(w io.Writer, verbose bool, format string) {
	logging := config.NewDefaultConfig().Logging
	if d.Config != nil {
		logging = d.Config.Logging
	}
	enabled := verbose || format != "" || logging != config.NewDefaultConfig().Logging
	if format == "" {
		format = logging.Format
	}
	level := logging.Level
	if verbose {
		level = "debug"
	}

	if enabled {
		d.Logger = newLogger(w, level, format)
	} else if d.Logger == nil {
		d.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if d.Prober == nil {
		d.Prober = probe.New(probe.WithLogger(d.Logger))
	}
	if d.Installer == nil {
		d.Installer = pkgmgr.NewInstaller(pkgmgr.WithLogger(d.Logger))
	}
	if d.Tracing == nil {
		d.Tracing = newTracerProvider(d.Logger)
	}
}

// newLogger builds a slog logger writing to w. Unknown levels fall back to
// info and unknown formats to text.
func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(level)); err != nil {
		lv = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lv}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
