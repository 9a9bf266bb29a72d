package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/stackgen/stackgen/internal/config"
	"github.com/stackgen/stackgen/internal/generator"
	"github.com/stackgen/stackgen/internal/metrics"
	"github.com/stackgen/stackgen/internal/pipeline"
	"github.com/stackgen/stackgen/internal/plugin"
	"github.com/stackgen/stackgen/internal/probe"
	"github.com/stackgen/stackgen/internal/stack"
	"github.com/stackgen/stackgen/internal/vcs"
	"github.com/stackgen/stackgen/pkg/models"
	"github.com/stackgen/stackgen/pkg/version"
)

// Stage names of the create pipeline.
const (
	stageValidate = "validate"
	stageGenerate = "generate"
	stageDatabase = "database"
	stageGit      = "git"
	stageInstall  = "install"
)

// installTimeout replaces the pipeline default for the install stage;
// a cold npm cache easily exceeds 30s.
const installTimeout = 5 * time.Minute

// schemaFile is the SQL schema applied when the database is bootstrapped,
// relative to the project directory.
var schemaFile = filepath.Join("db", "schema.sql")

var (
	// ErrInvalidProject is returned by the validate stage.
	ErrInvalidProject = errors.New("invalid project configuration")
	// ErrProjectExists is returned when the target directory is not empty.
	ErrProjectExists = errors.New("project directory already exists and is not empty")
	// ErrPluginsFailed is returned by the generate stage when a plugin failed.
	ErrPluginsFailed = errors.New("plugins failed")
)

// newGenerator builds a generator with the built-in plugins and the custom
// plugins declared in the configuration.
func newGenerator(d *Dependencies) (*generator.Generator, error) {
	cfg := d.Config
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}

	var regOpts []plugin.RegistryOption
	if cfg.Plugins.LenientDependencies {
		regOpts = append(regOpts, plugin.WithLenientDependencies())
	}
	if cfg.Plugins.ApplicableDependencies {
		regOpts = append(regOpts, plugin.WithApplicableDependencies())
	}

	gen := generator.New(
		generator.WithLogger(d.Logger),
		generator.WithRegistryOptions(regOpts...),
	)

	opts := stack.Options{
		Deployer:    d.Deployer,
		ToolVersion: version.Get().Version,
		Recorder:    recorder(d),
		Logger:      d.Logger,
	}
	if err := gen.RegisterPlugins(stack.Builtins(opts)...); err != nil {
		return nil, fmt.Errorf("register built-in plugins: %w", err)
	}

	custom, err := stack.Custom(customSpecs(cfg.Plugins.Custom), opts)
	if err != nil {
		return nil, fmt.Errorf("custom plugins: %w", err)
	}
	if err := gen.RegisterPlugins(custom...); err != nil {
		return nil, fmt.Errorf("register custom plugins: %w", err)
	}
	return gen, nil
}

// recorder avoids handing a typed nil to an interface.
func recorder(d *Dependencies) metrics.Recorder {
	if d.Metrics == nil {
		return nil
	}
	return d.Metrics
}

func customSpecs(in []config.CustomPlugin) []stack.CustomSpec {
	specs := make([]stack.CustomSpec, 0, len(in))
	for _, c := range in {
		specs = append(specs, stack.CustomSpec{
			Name:         c.Name,
			Version:      c.Version,
			Priority:     c.Priority,
			Dependencies: c.DependsOn,
			Dir:          c.Dir,
			When:         c.When,
			Packages:     c.Dependencies,
			DevPackages:  c.DevDependencies,
			Scripts:      c.Scripts,
		})
	}
	return specs
}

// createRun holds what the create stages share.
type createRun struct {
	deps  *Dependencies
	gen   *generator.Generator
	force bool
}

// buildPipeline assembles the create pipeline for cfg. Stages that have
// nothing to do for cfg are left out.
func (r *createRun) buildPipeline(cfg *models.ProjectConfig, observers ...pipeline.Observer) (*pipeline.Pipeline, error) {
	d := r.deps
	opts := []pipeline.Option{pipeline.WithLogger(d.Logger)}
	for _, o := range observers {
		opts = append(opts, pipeline.WithObserver(o))
	}
	if d.Tracing != nil {
		opts = append(opts, pipeline.WithTracer(d.Tracing.Tracer(tracerName)))
	}
	if rec := recorder(d); rec != nil {
		opts = append(opts, pipeline.WithRecorder(rec))
	}
	p := pipeline.New(opts...)

	pc := config.NewDefaultConfig().Pipeline
	if d.Config != nil {
		pc = d.Config.Pipeline
	}

	type stageDef struct {
		name   string
		action pipeline.StageFunc
		opts   []pipeline.StageOption
	}
	defs := []stageDef{
		{stageValidate, r.validate, nil},
		{stageGenerate, r.generate, nil},
	}
	if (cfg.Database != "" && cfg.Database != models.DatabaseNone) || cfg.RedisURL != "" {
		defs = append(defs, stageDef{stageDatabase, r.database, []pipeline.StageOption{pipeline.Optional()}})
	}
	if cfg.Git {
		defs = append(defs, stageDef{stageGit, r.git, []pipeline.StageOption{pipeline.Optional()}})
	}
	if cfg.Install {
		defs = append(defs, stageDef{stageInstall, r.install, []pipeline.StageOption{
			pipeline.Optional(),
			pipeline.WithRetries(1),
			pipeline.WithTimeout(installTimeout),
		}})
	}

	for _, def := range defs {
		if err := p.AddStage(def.name, def.action, stageOptions(pc, def.name, def.opts...)...); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// stageOptions appends the configured overrides for a stage after its
// built-in options, so configuration wins.
func stageOptions(pc config.PipelineConfig, name string, opts ...pipeline.StageOption) []pipeline.StageOption {
	opts = append(opts, pipeline.WithRetryBackoff(pc.BackoffBase, pc.BackoffMax))
	sc, ok := pc.Stage(name)
	if !ok {
		return opts
	}
	opts = append(opts, pipeline.WithTimeout(sc.Timeout))
	if sc.Retries != nil {
		opts = append(opts, pipeline.WithRetries(*sc.Retries))
	}
	return opts
}

func (r *createRun) validate(ctx context.Context, cfg *models.ProjectConfig, sc *pipeline.StageContext) (any, error) {
	res := r.gen.ValidateConfig(ctx, cfg)
	for _, w := range res.Warnings {
		sc.Warn(w)
	}
	if !res.IsValid {
		return res, fmt.Errorf("%w: %s", ErrInvalidProject, strings.Join(res.Errors, "; "))
	}
	if err := checkProjectDir(cfg.ProjectDir, r.force); err != nil {
		return res, err
	}
	return res, nil
}

// checkProjectDir rejects a non-empty target directory unless force is set.
func checkProjectDir(dir string, force bool) error {
	if dir == "" {
		return fmt.Errorf("%w: no project directory", ErrInvalidProject)
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read project directory: %w", err)
	}
	if len(entries) > 0 && !force {
		return fmt.Errorf("%w: %s", ErrProjectExists, dir)
	}
	return nil
}

func (r *createRun) generate(ctx context.Context, cfg *models.ProjectConfig, sc *pipeline.StageContext) (any, error) {
	if err := os.MkdirAll(cfg.ProjectDir, 0o755); err != nil {
		return nil, fmt.Errorf("create project directory: %w", err)
	}
	res, err := r.gen.GenerateWith(ctx, cfg, sc.GenerationContext)
	if err != nil {
		return res, err
	}
	for _, w := range res.Warnings {
		sc.Warn(w)
	}
	if !res.Succeeded() {
		var msgs []string
		for _, f := range res.Failed {
			msgs = append(msgs, fmt.Sprintf("%s: %v", f.Plugin, f.Err))
		}
		return res, fmt.Errorf("%w: %s", ErrPluginsFailed, strings.Join(msgs, "; "))
	}
	return res, nil
}

func (r *createRun) database(ctx context.Context, cfg *models.ProjectConfig, sc *pipeline.StageContext) (any, error) {
	schema, err := os.ReadFile(filepath.Join(cfg.ProjectDir, schemaFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	report, err := r.deps.Prober.Run(ctx, cfg, cfg.ProjectDir, string(schema))
	for _, c := range report.Checks {
		if c.Status == probe.StatusSkipped {
			sc.Warn(fmt.Sprintf("%s: %s", c.Name, c.Detail))
		}
	}
	return report, err
}

func (r *createRun) git(ctx context.Context, cfg *models.ProjectConfig, sc *pipeline.StageContext) (any, error) {
	gitCfg := config.NewDefaultConfig().Git
	if r.deps.Config != nil {
		gitCfg = r.deps.Config.Git
	}
	initer := vcs.NewInitializer(
		vcs.WithAuthor(vcs.Signature{Name: gitCfg.AuthorName, Email: gitCfg.AuthorEmail}),
		vcs.WithBranch(gitCfg.Branch),
		vcs.WithLogger(r.deps.Logger),
	)
	res, err := initer.Init(ctx, cfg.ProjectDir)
	if errors.Is(err, vcs.ErrAlreadyInitialized) {
		sc.Warn("git: repository already initialized, no commit made")
		return nil, nil
	}
	return res, err
}

func (r *createRun) install(ctx context.Context, cfg *models.ProjectConfig, _ *pipeline.StageContext) (any, error) {
	return nil, r.deps.Installer.Install(ctx, cfg.PackageManager, cfg.ProjectDir)
}
