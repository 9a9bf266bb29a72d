package wizard

import (
	"errors"
	"slices"
	"strconv"

	"github.com/stackgen/stackgen/pkg/models"
)

// DefaultQuestions returns the full question set in asking order.
func DefaultQuestions() []Question {
	return []Question{
		{
			ID:    IDProjectName,
			Type:  QuestionTypeInput,
			Title: "Project name",
			Validate: func(s string) error {
				if s == "" {
					return errors.New("project name is required")
				}
				return nil
			},
		},
		{
			ID:    IDDatabase,
			Type:  QuestionTypeSelect,
			Title: "Database",
			Options: []Option{
				{Label: "None", Value: string(models.DatabaseNone)},
				{Label: "SQLite", Value: string(models.DatabaseSQLite), Desc: "File database, created locally"},
				{Label: "PostgreSQL", Value: string(models.DatabasePostgres)},
				{Label: "MySQL", Value: string(models.DatabaseMySQL)},
				{Label: "MongoDB", Value: string(models.DatabaseMongoDB)},
			},
		},
		{
			ID:    IDORM,
			Type:  QuestionTypeSelect,
			Title: "ORM",
			Options: []Option{
				{Label: "None", Value: string(models.ORMNone)},
				{Label: "Drizzle", Value: string(models.ORMDrizzle)},
				{Label: "Prisma", Value: string(models.ORMPrisma)},
				{Label: "Mongoose", Value: string(models.ORMMongoose)},
			},
			Condition: func(cfg *models.ProjectConfig) bool {
				return cfg.Database != models.DatabaseNone
			},
		},
		{
			ID:    IDBackend,
			Type:  QuestionTypeSelect,
			Title: "Backend",
			Options: []Option{
				{Label: "Hono", Value: string(models.BackendHono)},
				{Label: "Express", Value: string(models.BackendExpress)},
				{Label: "Elysia", Value: string(models.BackendElysia), Desc: "Runs on Bun"},
				{Label: "None", Value: string(models.BackendNone)},
			},
		},
		{
			ID:    IDFrontend,
			Type:  QuestionTypeMultiSelect,
			Title: "Frontend",
			Options: []Option{
				{Label: "React (Vite)", Value: string(models.FrontendReact)},
				{Label: "Next.js", Value: string(models.FrontendNext)},
				{Label: "SvelteKit", Value: string(models.FrontendSvelte)},
				{Label: "Solid", Value: string(models.FrontendSolid)},
			},
		},
		{
			ID:    IDAuth,
			Type:  QuestionTypeSelect,
			Title: "Authentication",
			Options: []Option{
				{Label: "None", Value: string(models.AuthNone)},
				{Label: "Better Auth", Value: string(models.AuthBetterAuth)},
			},
		},
		{
			ID:    IDAddons,
			Type:  QuestionTypeMultiSelect,
			Title: "Addons",
			Options: []Option{
				{Label: "Docs", Value: string(models.AddonDocs), Desc: "Markdown pages rendered to HTML"},
				{Label: "Biome", Value: string(models.AddonBiome)},
				{Label: "Husky", Value: string(models.AddonHusky)},
				{Label: "PWA", Value: string(models.AddonPWA)},
			},
		},
		{
			ID:    IDPackageManager,
			Type:  QuestionTypeSelect,
			Title: "Package manager",
			Options: []Option{
				{Label: "npm", Value: string(models.PackageManagerNPM)},
				{Label: "pnpm", Value: string(models.PackageManagerPNPM)},
				{Label: "bun", Value: string(models.PackageManagerBun)},
			},
		},
		{ID: IDGit, Type: QuestionTypeConfirm, Title: "Initialize a git repository?"},
		{ID: IDInstall, Type: QuestionTypeConfirm, Title: "Install dependencies?"},
	}
}

// Without drops the questions whose IDs are listed, typically those
// already answered by flags.
func Without(questions []Question, ids ...string) []Question {
	return slices.DeleteFunc(slices.Clone(questions), func(q Question) bool {
		return slices.Contains(ids, q.ID)
	})
}

// current returns the value cfg holds for a question ID.
func current(cfg *models.ProjectConfig, id string) []string {
	switch id {
	case IDProjectName:
		return []string{cfg.ProjectName}
	case IDDatabase:
		return []string{string(cfg.Database)}
	case IDORM:
		return []string{string(cfg.ORM)}
	case IDBackend:
		return []string{string(cfg.Backend)}
	case IDAuth:
		return []string{string(cfg.Auth)}
	case IDPackageManager:
		return []string{string(cfg.PackageManager)}
	case IDGit:
		return []string{strconv.FormatBool(cfg.Git)}
	case IDInstall:
		return []string{strconv.FormatBool(cfg.Install)}
	case IDFrontend:
		out := make([]string, len(cfg.Frontend))
		for i, f := range cfg.Frontend {
			out[i] = string(f)
		}
		return out
	case IDAddons:
		out := make([]string, len(cfg.Addons))
		for i, a := range cfg.Addons {
			out[i] = string(a)
		}
		return out
	}
	return nil
}

// apply writes an answer back into cfg.
func apply(cfg *models.ProjectConfig, id string, values []string) {
	first := ""
	if len(values) > 0 {
		first = values[0]
	}
	switch id {
	case IDProjectName:
		cfg.ProjectName = first
	case IDDatabase:
		cfg.Database = models.Database(first)
		if cfg.Database == models.DatabaseNone {
			cfg.ORM = models.ORMNone
		}
	case IDORM:
		cfg.ORM = models.ORM(first)
	case IDBackend:
		cfg.Backend = models.Backend(first)
	case IDAuth:
		cfg.Auth = models.Auth(first)
	case IDPackageManager:
		cfg.PackageManager = models.PackageManager(first)
	case IDGit:
		cfg.Git = first == "true"
	case IDInstall:
		cfg.Install = first == "true"
	case IDFrontend:
		cfg.Frontend = cfg.Frontend[:0]
		for _, v := range values {
			cfg.Frontend = append(cfg.Frontend, models.Frontend(v))
		}
	case IDAddons:
		cfg.Addons = cfg.Addons[:0]
		for _, v := range values {
			cfg.Addons = append(cfg.Addons, models.Addon(v))
		}
	}
}
