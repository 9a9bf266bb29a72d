package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stackgen/stackgen/internal/config"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [project-name]",
		Short: "Check the configuration and a stack selection without generating",
		Long: `Load stackgen.yaml, apply environment overrides and stack flags, and run
the validateConfig hooks of every plugin. Nothing is written.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runValidate,
	}
	addStackFlags(cmd)
	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	d, err := prepare(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	name := "app"
	if len(args) > 0 {
		name = args[0]
	}
	cfg := d.Config.ProjectConfig(name)
	applyStackFlags(cmd, cfg)

	source := "built-in defaults"
	if d.Loader != nil {
		if sections := d.Loader.LoadedSections(); len(sections) > 0 {
			file := getStringFlag(cmd, "config")
			if file == "" {
				file = config.DefaultFileName
			}
			source = file + " (" + strings.Join(slices.Sorted(maps.Keys(sections)), ", ") + ")"
		}
	}
	_, _ = fmt.Fprintf(out, "%s %s\n", cliMuted.Render("config:"), source)
	_, _ = fmt.Fprintf(out, "%s %s\n", cliMuted.Render("stack:"), cfg.String())

	gen, err := newGenerator(d)
	if err != nil {
		return err
	}
	res := gen.ValidateConfig(cmd.Context(), cfg)
	for _, w := range res.Warnings {
		_, _ = fmt.Fprintln(out, cliWarn.Render("! "+w))
	}
	for _, e := range res.Errors {
		_, _ = fmt.Fprintln(out, cliError.Render("✗ "+e))
	}
	if !res.IsValid {
		return fmt.Errorf("%w: %d error(s)", ErrInvalidProject, len(res.Errors))
	}
	_, _ = fmt.Fprintln(out, cliSuccess.Render("✓ configuration is valid"))
	return nil
}
