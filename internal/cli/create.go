package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stackgen/stackgen/internal/cli/wizard"
	"github.com/stackgen/stackgen/internal/pipeline"
	"github.com/stackgen/stackgen/internal/plugin"
	"github.com/stackgen/stackgen/internal/ui"
	"github.com/stackgen/stackgen/pkg/models"
)

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create [project-name]",
		Short: "Create a new project",
		Long: `Create a new project from the selected stack.

Options not given as flags are asked interactively. With --yes, or when
stdin is not a terminal, they come from stackgen.yaml defaults instead.

Examples:
  stackgen create my-app
  stackgen create api --backend hono --frontend react,solid --database sqlite --yes
  stackgen create shop --database mysql --database-url mysql://root@localhost:3306/shop`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCreate,
	}

	f := cmd.Flags()
	f.String("dir", "", "Target directory (default: ./<project-name>)")
	addStackFlags(cmd)
	f.BoolP("yes", "y", false, "Skip the wizard; use flags and configured defaults")
	f.Bool("force", false, "Generate into a non-empty directory, keeping existing files")
	f.String("metrics-textfile", "", "Write Prometheus metrics to this file after the run")
	return cmd
}

func runCreate(cmd *cobra.Command, args []string) error {
	d, err := prepare(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	var name string
	if len(args) > 0 {
		name = args[0]
	}
	cfg := d.Config.ProjectConfig(name)
	answered := applyStackFlags(cmd, cfg)
	if name != "" {
		answered = append(answered, wizard.IDProjectName)
	}

	if !getBoolFlag(cmd, "yes") && !d.Headless.IsHeadless() && d.Prompt != nil {
		questions := wizard.Without(wizard.DefaultQuestions(), answered...)
		if len(questions) > 0 {
			if err := d.Prompt(ctx, questions, cfg); err != nil {
				if errors.Is(err, wizard.ErrCancelled) {
					_, _ = fmt.Fprintln(out, d.Theme.Muted("Project creation cancelled."))
					return nil
				}
				return err
			}
		}
	}
	if cfg.ProjectName == "" {
		return fmt.Errorf("%w: project name is required", ErrInvalidProject)
	}

	cfg.ProjectDir, err = projectDir(getStringFlag(cmd, "dir"), cfg.ProjectName)
	if err != nil {
		return err
	}

	gen, err := newGenerator(d)
	if err != nil {
		return err
	}
	run := &createRun{deps: d, gen: gen, force: getBoolFlag(cmd, "force")}
	p, err := run.buildPipeline(cfg, ui.NewStageProgress(d.Theme, d.Headless, out))
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "%s %s\n", d.Theme.Title("Creating"), cfg.ProjectName)
	gc := gen.NewContext(cfg)
	result := p.ExecuteWith(ctx, cfg, gc)

	if path := metricsTextfile(cmd, d); path != "" && d.Metrics != nil {
		if err := d.Metrics.WriteTextfile(path); err != nil {
			d.Logger.Warn("metrics textfile not written", "path", path, "error", err)
		}
	}

	if !result.Overall.Success {
		return errors.Join(result.Overall.Errors...)
	}
	printSummary(out, d, cfg, gc, result)
	return nil
}

// addStackFlags registers one flag per stack option.
func addStackFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("database", "", "Database: "+joinValues(models.ValidDatabases()))
	f.String("orm", "", "ORM: "+joinValues(models.ValidORMs()))
	f.String("backend", "", "Backend framework: "+joinValues(models.ValidBackends()))
	f.StringSlice("frontend", nil, "Frontend frameworks: "+joinValues(models.ValidFrontends()))
	f.String("auth", "", "Authentication: "+joinValues(models.ValidAuths()))
	f.StringSlice("addons", nil, "Addons: "+joinValues(models.ValidAddons()))
	f.String("package-manager", "", "Package manager: "+joinValues(models.ValidPackageManagers()))
	f.Bool("git", false, "Initialize a git repository with an initial commit")
	f.Bool("install", false, "Install dependencies after generation")
	f.String("database-url", "", "Connection string of an existing database to check")
	f.String("redis-url", "", "redis:// URL to check after generation")
}

// applyStackFlags copies every stack flag the user set into cfg and
// returns the wizard question IDs they answer.
func applyStackFlags(cmd *cobra.Command, cfg *models.ProjectConfig) []string {
	flags := cmd.Flags()
	var answered []string
	set := func(flag, id string, fn func()) {
		if flags.Changed(flag) {
			fn()
			answered = append(answered, id)
		}
	}

	set("database", wizard.IDDatabase, func() {
		cfg.Database = models.Database(getStringFlag(cmd, "database"))
	})
	set("orm", wizard.IDORM, func() {
		cfg.ORM = models.ORM(getStringFlag(cmd, "orm"))
	})
	set("backend", wizard.IDBackend, func() {
		cfg.Backend = models.Backend(getStringFlag(cmd, "backend"))
	})
	set("frontend", wizard.IDFrontend, func() {
		cfg.Frontend = cfg.Frontend[:0]
		for _, v := range getStringSliceFlag(cmd, "frontend") {
			cfg.Frontend = append(cfg.Frontend, models.Frontend(v))
		}
	})
	set("auth", wizard.IDAuth, func() {
		cfg.Auth = models.Auth(getStringFlag(cmd, "auth"))
	})
	set("addons", wizard.IDAddons, func() {
		cfg.Addons = cfg.Addons[:0]
		for _, v := range getStringSliceFlag(cmd, "addons") {
			cfg.Addons = append(cfg.Addons, models.Addon(v))
		}
	})
	set("package-manager", wizard.IDPackageManager, func() {
		cfg.PackageManager = models.PackageManager(getStringFlag(cmd, "package-manager"))
	})
	set("git", wizard.IDGit, func() {
		cfg.Git = getBoolFlag(cmd, "git")
	})
	set("install", wizard.IDInstall, func() {
		cfg.Install = getBoolFlag(cmd, "install")
	})

	if flags.Changed("database-url") {
		cfg.DatabaseURL = getStringFlag(cmd, "database-url")
	}
	if flags.Changed("redis-url") {
		cfg.RedisURL = getStringFlag(cmd, "redis-url")
	}
	if cfg.Database == models.DatabaseNone && !flags.Changed("orm") {
		cfg.ORM = models.ORMNone
	}
	return answered
}

// projectDir resolves the target directory. An empty dir means a
// directory named after the project in the working directory.
func projectDir(dir, name string) (string, error) {
	if dir == "" {
		dir = name
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve project directory: %w", err)
	}
	return abs, nil
}

func metricsTextfile(cmd *cobra.Command, d *Dependencies) string {
	if path := getStringFlag(cmd, "metrics-textfile"); path != "" {
		return path
	}
	if d.Config != nil {
		return d.Config.Metrics.Textfile
	}
	return ""
}

func printSummary(w io.Writer, d *Dependencies, cfg *models.ProjectConfig, gc *plugin.GenerationContext, result *pipeline.RunResult) {
	_, _ = fmt.Fprintf(w, "\n%s %s %s\n",
		d.Theme.Success("✓"),
		cfg.ProjectName,
		d.Theme.Muted(fmt.Sprintf("(%d files in %s, %s)", len(gc.Files()), cfg.ProjectDir, result.Duration.Round(time.Millisecond))),
	)
	if len(result.Overall.Warnings) > 0 {
		_, _ = fmt.Fprintf(w, "%s\n", d.Theme.Warning(fmt.Sprintf("%d warning(s)", len(result.Overall.Warnings))))
	}
	_, _ = fmt.Fprint(w, renderMarkdown(nextSteps(cfg, result), d.Theme.NoColor || d.Headless.IsHeadless()))
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
