package cli

import (
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stackgen/stackgen/internal/generator"
	"github.com/stackgen/stackgen/internal/templates"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plugins and template options",
		Long: `List the registered plugins in execution order, including custom
plugins declared in stackgen.yaml. With --templates, list the bundled
template directories instead.`,
		Args: cobra.NoArgs,
		RunE: runList,
	}
	cmd.Flags().Bool("templates", false, "List bundled template directories")
	return cmd
}

func runList(cmd *cobra.Command, _ []string) error {
	d, err := prepare(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if getBoolFlag(cmd, "templates") {
		return listTemplates(out, templates.FS())
	}

	gen, err := newGenerator(d)
	if err != nil {
		return err
	}
	renderPlugins(out, gen)
	for _, w := range gen.Registry().Warnings() {
		_, _ = fmt.Fprintln(out, cliWarn.Render("! "+w))
	}
	return nil
}

func renderPlugins(w io.Writer, gen *generator.Generator) {
	stats := gen.Stats()
	reg := gen.Registry()

	var lines []string
	for i, name := range stats.ExecutionOrder {
		p, ok := reg.Plugin(name)
		if !ok {
			continue
		}
		line := fmt.Sprintf("%2d. %-10s %s", i+1, cliPrimary.Render(name), cliMuted.Render(fmt.Sprintf("v%s  priority %d", p.Version(), p.Priority())))
		if deps := p.Dependencies(); len(deps) > 0 {
			line += cliMuted.Render("  after " + strings.Join(deps, ", "))
		}
		lines = append(lines, line)
	}
	header := fmt.Sprintf("%d plugins, %d hooks", stats.Plugins, stats.Hooks)
	_, _ = fmt.Fprintln(w, cardStyle().Render(header+"\n\n"+strings.Join(lines, "\n")))
}

// listTemplates prints the template options grouped by concern.
func listTemplates(w io.Writer, fsys fs.FS) error {
	concerns, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("read templates: %w", err)
	}
	for _, c := range concerns {
		if !c.IsDir() {
			continue
		}
		options, err := fs.ReadDir(fsys, c.Name())
		if err != nil {
			return fmt.Errorf("read templates %s: %w", c.Name(), err)
		}
		var names []string
		for _, o := range options {
			if o.IsDir() {
				names = append(names, o.Name())
			}
		}
		if len(names) == 0 {
			// base holds files directly.
			names = []string{cliMuted.Render("(always deployed)")}
		}
		_, _ = fmt.Fprintf(w, "%s %s\n", cliPrimary.Render(c.Name()+":"), strings.Join(names, ", "))
	}
	return nil
}
