package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/stackgen/stackgen/internal/pipeline"
	"github.com/stackgen/stackgen/internal/template"
	"github.com/stackgen/stackgen/pkg/models"
)

// nextSteps returns the markdown printed after a successful create.
func nextSteps(cfg *models.ProjectConfig, result *pipeline.RunResult) string {
	pm := cfg.PackageManager
	if pm == "" {
		pm = models.PackageManagerNPM
	}

	dir := cfg.ProjectDir
	if rel, err := filepath.Rel(".", cfg.ProjectDir); err == nil && !strings.HasPrefix(rel, "..") {
		dir = rel
	}

	var b strings.Builder
	b.WriteString("## Next steps\n\n```sh\n")
	fmt.Fprintf(&b, "cd %s\n", dir)
	if install, ok := result.Stage(stageInstall); !ok || !install.Success {
		fmt.Fprintf(&b, "%s install\n", pm)
	}
	fmt.Fprintf(&b, "%s dev\n```\n", template.RunCommand(pm))

	var notes []string
	if cfg.Database == models.DatabaseSQLite {
		if db, ok := result.Stage(stageDatabase); ok && db.Success {
			notes = append(notes, "The SQLite database was created at `local.db`.")
		}
	}
	if cfg.HasAddon(models.AddonDocs) {
		notes = append(notes, "Documentation pages are in `docs/`.")
	}
	for _, st := range result.Stages {
		if !st.Success && !st.Required {
			notes = append(notes, fmt.Sprintf("Stage `%s` did not complete: %v", st.Name, st.Err))
		}
	}
	if len(notes) > 0 {
		b.WriteString("\n")
		for _, n := range notes {
			fmt.Fprintf(&b, "- %s\n", n)
		}
	}
	return b.String()
}

// renderMarkdown renders md for the terminal. The plain style is used for
// headless output; on a renderer error the markdown is returned as is.
func renderMarkdown(md string, plain bool) string {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(80)}
	if plain {
		opts = append(opts, glamour.WithStandardStyle("notty"))
	} else {
		opts = append(opts, glamour.WithAutoStyle())
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}
