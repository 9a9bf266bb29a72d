package stack

import (
	"github.com/stackgen/stackgen/internal/manifest"
	"github.com/stackgen/stackgen/internal/plugin"
	"github.com/stackgen/stackgen/internal/templates"
	"github.com/stackgen/stackgen/pkg/models"
)

func newBase(opts Options) plugin.Plugin {
	return &templated{
		Base: plugin.NewBase(plugin.Meta{Name: NameBase, Version: Version, Priority: 0}),
		opts: opts,
		dirs: func(*models.ProjectConfig) []string { return []string{"base"} },
		fragments: func(*models.ProjectConfig) []manifest.Fragment {
			return []manifest.Fragment{{
				"devDependencies": deps("typescript", "^5.7.0", "@types/node", "^22.10.0"),
				"scripts":         deps("typecheck", "tsc --noEmit"),
			}}
		},
	}
}

var databaseDrivers = map[models.Database][]string{
	models.DatabaseSQLite:   {"@libsql/client", "^0.14.0"},
	models.DatabasePostgres: {"pg", "^8.13.0"},
	models.DatabaseMySQL:    {"mysql2", "^3.11.0"},
	models.DatabaseMongoDB:  {"mongodb", "^6.12.0"},
}

func newDatabase(opts Options) plugin.Plugin {
	return &templated{
		Base: plugin.NewBase(plugin.Meta{
			Name: NameDatabase, Version: Version, Priority: 10, Dependencies: []string{NameBase},
		}),
		opts: opts,
		when: func(cfg *models.ProjectConfig) bool {
			return cfg.Database != "" && cfg.Database != models.DatabaseNone
		},
		dirs: func(cfg *models.ProjectConfig) []string {
			return []string{templates.Dir("database", string(cfg.Database))}
		},
		fragments: func(cfg *models.ProjectConfig) []manifest.Fragment {
			driver, ok := databaseDrivers[cfg.Database]
			if !ok {
				return nil
			}
			return []manifest.Fragment{{"dependencies": deps(driver...)}}
		},
	}
}

var ormFragments = map[models.ORM]manifest.Fragment{
	models.ORMDrizzle: {
		"dependencies":    deps("drizzle-orm", "^0.38.0"),
		"devDependencies": deps("drizzle-kit", "^0.30.0"),
		"scripts":         deps("db:push", "drizzle-kit push", "db:studio", "drizzle-kit studio"),
	},
	models.ORMPrisma: {
		"dependencies":    deps("@prisma/client", "^6.1.0"),
		"devDependencies": deps("prisma", "^6.1.0"),
		"scripts":         deps("db:push", "prisma db push", "db:generate", "prisma generate"),
	},
	models.ORMMongoose: {
		"dependencies": deps("mongoose", "^8.9.0"),
	},
}

func newORM(opts Options) plugin.Plugin {
	return &templated{
		Base: plugin.NewBase(plugin.Meta{
			Name: NameORM, Version: Version, Priority: 20, Dependencies: []string{NameDatabase},
		}),
		opts: opts,
		when: func(cfg *models.ProjectConfig) bool {
			return cfg.ORM != "" && cfg.ORM != models.ORMNone
		},
		dirs: func(cfg *models.ProjectConfig) []string {
			return []string{templates.Dir("orm", string(cfg.ORM))}
		},
		fragments: func(cfg *models.ProjectConfig) []manifest.Fragment {
			if frag, ok := ormFragments[cfg.ORM]; ok {
				return []manifest.Fragment{frag}
			}
			return nil
		},
	}
}

var backendFragments = map[models.Backend]manifest.Fragment{
	models.BackendHono: {
		"dependencies":    deps("hono", "^4.6.0", "@hono/node-server", "^1.13.0"),
		"devDependencies": deps("tsx", "^4.19.0"),
		"scripts":         deps("dev", "tsx watch src/index.ts", "start", "node dist/index.js"),
	},
	models.BackendExpress: {
		"dependencies":    deps("express", "^4.21.0"),
		"devDependencies": deps("@types/express", "^5.0.0", "tsx", "^4.19.0"),
		"scripts":         deps("dev", "tsx watch src/index.ts", "start", "node dist/index.js"),
	},
	models.BackendElysia: {
		"dependencies": deps("elysia", "^1.2.0"),
		"scripts":      deps("dev", "bun --watch src/index.ts", "start", "bun src/index.ts"),
	},
}

func newBackend(opts Options) plugin.Plugin {
	return &templated{
		Base: plugin.NewBase(plugin.Meta{
			Name: NameBackend, Version: Version, Priority: 30, Dependencies: []string{NameBase},
		}),
		opts: opts,
		when: func(cfg *models.ProjectConfig) bool {
			return cfg.Backend != "" && cfg.Backend != models.BackendNone
		},
		dirs: func(cfg *models.ProjectConfig) []string {
			return []string{templates.Dir("backend", string(cfg.Backend))}
		},
		fragments: func(cfg *models.ProjectConfig) []manifest.Fragment {
			if frag, ok := backendFragments[cfg.Backend]; ok {
				return []manifest.Fragment{frag}
			}
			return nil
		},
	}
}

var frontendFragments = map[models.Frontend]manifest.Fragment{
	models.FrontendReact: {
		"dependencies":    deps("react", "^19.0.0", "react-dom", "^19.0.0"),
		"devDependencies": deps("vite", "^6.0.0", "@vitejs/plugin-react", "^4.3.0"),
		"scripts":         deps("dev:web", "vite", "build:web", "vite build"),
	},
	models.FrontendNext: {
		"dependencies": deps("next", "^15.1.0", "react", "^19.0.0", "react-dom", "^19.0.0"),
		"scripts":      deps("dev:web", "next dev", "build:web", "next build"),
	},
	models.FrontendSvelte: {
		"devDependencies": deps("@sveltejs/kit", "^2.15.0", "@sveltejs/adapter-auto", "^3.3.0", "svelte", "^5.16.0", "vite", "^6.0.0"),
		"scripts":         deps("dev:web", "vite dev", "build:web", "vite build"),
	},
	models.FrontendSolid: {
		"dependencies":    deps("solid-js", "^1.9.0"),
		"devDependencies": deps("vite", "^6.0.0", "vite-plugin-solid", "^2.11.0"),
		"scripts":         deps("dev:web", "vite", "build:web", "vite build"),
	},
}

func newFrontend(opts Options) plugin.Plugin {
	return &templated{
		Base: plugin.NewBase(plugin.Meta{
			Name: NameFrontend, Version: Version, Priority: 40, Dependencies: []string{NameBase},
		}),
		opts: opts,
		when: func(cfg *models.ProjectConfig) bool { return len(cfg.Frontend) > 0 },
		dirs: func(cfg *models.ProjectConfig) []string {
			dirs := make([]string, 0, len(cfg.Frontend))
			for _, f := range cfg.Frontend {
				dirs = append(dirs, templates.Dir("frontend", string(f)))
			}
			return dirs
		},
		fragments: func(cfg *models.ProjectConfig) []manifest.Fragment {
			var out []manifest.Fragment
			for _, f := range cfg.Frontend {
				if frag, ok := frontendFragments[f]; ok {
					out = append(out, frag)
				}
			}
			return out
		},
	}
}

func newAuth(opts Options) plugin.Plugin {
	return &templated{
		Base: plugin.NewBase(plugin.Meta{
			Name: NameAuth, Version: Version, Priority: 50, Dependencies: []string{NameBase},
		}),
		opts: opts,
		when: func(cfg *models.ProjectConfig) bool {
			return cfg.Auth != "" && cfg.Auth != models.AuthNone
		},
		dirs: func(cfg *models.ProjectConfig) []string {
			return []string{templates.Dir("auth", string(cfg.Auth))}
		},
		fragments: func(cfg *models.ProjectConfig) []manifest.Fragment {
			return []manifest.Fragment{{"dependencies": deps("better-auth", "^1.1.0")}}
		},
	}
}

var addonFragments = map[models.Addon]manifest.Fragment{
	models.AddonBiome: {
		"devDependencies": deps("@biomejs/biome", "^1.9.4"),
		"scripts":         deps("lint", "biome check .", "format", "biome format --write ."),
	},
	models.AddonHusky: {
		"devDependencies": deps("husky", "^9.1.0"),
		"scripts":         deps("prepare", "husky"),
	},
	models.AddonPWA: {
		"devDependencies": deps("vite-plugin-pwa", "^0.21.0"),
	},
}

// newAddons handles every addon except docs, which has its own plugin.
func newAddons(opts Options) plugin.Plugin {
	return &templated{
		Base: plugin.NewBase(plugin.Meta{
			Name: NameAddons, Version: Version, Priority: 60, Dependencies: []string{NameBase},
		}),
		opts: opts,
		when: func(cfg *models.ProjectConfig) bool {
			for _, a := range cfg.Addons {
				if a != models.AddonDocs {
					return true
				}
			}
			return false
		},
		dirs: func(cfg *models.ProjectConfig) []string {
			var dirs []string
			for _, a := range cfg.Addons {
				if a != models.AddonDocs {
					dirs = append(dirs, templates.Dir("addons", string(a)))
				}
			}
			return dirs
		},
		fragments: func(cfg *models.ProjectConfig) []manifest.Fragment {
			var out []manifest.Fragment
			for _, a := range cfg.Addons {
				if frag, ok := addonFragments[a]; ok {
					out = append(out, frag)
				}
			}
			return out
		},
	}
}
