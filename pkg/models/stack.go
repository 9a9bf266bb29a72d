package models

import (
	"slices"
	"strings"
)

// Database is the database engine selected for the generated project.
type Database string

const (
	DatabaseNone     Database = "none"
	DatabaseSQLite   Database = "sqlite"
	DatabasePostgres Database = "postgres"
	DatabaseMySQL    Database = "mysql"
	DatabaseMongoDB  Database = "mongodb"
)

// ValidDatabases returns all valid database values.
func ValidDatabases() []Database {
	return []Database{DatabaseNone, DatabaseSQLite, DatabasePostgres, DatabaseMySQL, DatabaseMongoDB}
}

// IsValid checks if the database is a known value.
func (d Database) IsValid() bool {
	return slices.Contains(ValidDatabases(), d)
}

// ORM is the data-access layer selected for the generated project.
type ORM string

const (
	ORMNone     ORM = "none"
	ORMDrizzle  ORM = "drizzle"
	ORMPrisma   ORM = "prisma"
	ORMMongoose ORM = "mongoose"
)

// ValidORMs returns all valid ORM values.
func ValidORMs() []ORM {
	return []ORM{ORMNone, ORMDrizzle, ORMPrisma, ORMMongoose}
}

// IsValid checks if the ORM is a known value.
func (o ORM) IsValid() bool {
	return slices.Contains(ValidORMs(), o)
}

// Backend is the server framework selected for the generated project.
type Backend string

const (
	BackendNone    Backend = "none"
	BackendHono    Backend = "hono"
	BackendExpress Backend = "express"
	BackendElysia  Backend = "elysia"
)

// ValidBackends returns all valid backend values.
func ValidBackends() []Backend {
	return []Backend{BackendNone, BackendHono, BackendExpress, BackendElysia}
}

// IsValid checks if the backend is a known value.
func (b Backend) IsValid() bool {
	return slices.Contains(ValidBackends(), b)
}

// Frontend is a client framework selected for the generated project.
type Frontend string

const (
	FrontendReact  Frontend = "react"
	FrontendNext   Frontend = "next"
	FrontendSvelte Frontend = "svelte"
	FrontendSolid  Frontend = "solid"
)

// ValidFrontends returns all valid frontend values.
func ValidFrontends() []Frontend {
	return []Frontend{FrontendReact, FrontendNext, FrontendSvelte, FrontendSolid}
}

// IsValid checks if the frontend is a known value.
func (f Frontend) IsValid() bool {
	return slices.Contains(ValidFrontends(), f)
}

// Auth is the authentication provider selected for the generated project.
type Auth string

const (
	AuthNone       Auth = "none"
	AuthBetterAuth Auth = "better-auth"
)

// ValidAuths returns all valid auth values.
func ValidAuths() []Auth {
	return []Auth{AuthNone, AuthBetterAuth}
}

// IsValid checks if the auth provider is a known value.
func (a Auth) IsValid() bool {
	return slices.Contains(ValidAuths(), a)
}

// Addon is an optional extra bundled into the generated project.
type Addon string

const (
	AddonDocs  Addon = "docs"
	AddonBiome Addon = "biome"
	AddonHusky Addon = "husky"
	AddonPWA   Addon = "pwa"
)

// ValidAddons returns all valid addon values.
func ValidAddons() []Addon {
	return []Addon{AddonDocs, AddonBiome, AddonHusky, AddonPWA}
}

// IsValid checks if the addon is a known value.
func (a Addon) IsValid() bool {
	return slices.Contains(ValidAddons(), a)
}

// PackageManager is the JavaScript package manager used for installation.
type PackageManager string

const (
	PackageManagerNPM  PackageManager = "npm"
	PackageManagerPNPM PackageManager = "pnpm"
	PackageManagerBun  PackageManager = "bun"
)

// ValidPackageManagers returns all valid package manager values.
func ValidPackageManagers() []PackageManager {
	return []PackageManager{PackageManagerNPM, PackageManagerPNPM, PackageManagerBun}
}

// IsValid checks if the package manager is a known value.
func (p PackageManager) IsValid() bool {
	return slices.Contains(ValidPackageManagers(), p)
}

// ProjectConfig is the full set of user choices for one generation run.
type ProjectConfig struct {
	ProjectName    string         `yaml:"project_name"`
	ProjectDir     string         `yaml:"project_dir"`
	Database       Database       `yaml:"database"`
	ORM            ORM            `yaml:"orm"`
	Backend        Backend        `yaml:"backend"`
	Frontend       []Frontend     `yaml:"frontend"`
	Auth           Auth           `yaml:"auth"`
	Addons         []Addon        `yaml:"addons"`
	PackageManager PackageManager `yaml:"package_manager"`
	Git            bool           `yaml:"git"`
	Install        bool           `yaml:"install"`

	// DatabaseURL is an optional connection string used to probe an
	// existing database after generation.
	DatabaseURL string `yaml:"database_url,omitempty"`
	// RedisURL is an optional redis:// URL checked alongside the database.
	RedisURL string `yaml:"redis_url,omitempty"`
}

// HasFrontend reports whether the given frontend was selected.
func (c *ProjectConfig) HasFrontend(f Frontend) bool {
	return slices.Contains(c.Frontend, f)
}

// HasAddon reports whether the given addon was selected.
func (c *ProjectConfig) HasAddon(a Addon) bool {
	return slices.Contains(c.Addons, a)
}

// Facts flattens the configuration into the variable map exposed to
// applicability rules. Keys use the YAML field names.
func (c *ProjectConfig) Facts() map[string]any {
	frontends := make([]string, len(c.Frontend))
	for i, f := range c.Frontend {
		frontends[i] = string(f)
	}
	addons := make([]string, len(c.Addons))
	for i, a := range c.Addons {
		addons[i] = string(a)
	}
	return map[string]any{
		"project_name":    c.ProjectName,
		"database":        string(c.Database),
		"orm":             string(c.ORM),
		"backend":         string(c.Backend),
		"frontend":        frontends,
		"auth":            string(c.Auth),
		"addons":          addons,
		"package_manager": string(c.PackageManager),
		"git":             c.Git,
		"install":         c.Install,
	}
}

// String returns a compact one-line summary of the stack.
func (c *ProjectConfig) String() string {
	if c == nil {
		return "<nil>"
	}
	parts := []string{
		"db=" + string(c.Database),
		"orm=" + string(c.ORM),
		"backend=" + string(c.Backend),
		"auth=" + string(c.Auth),
	}
	if len(c.Frontend) > 0 {
		fe := make([]string, len(c.Frontend))
		for i, f := range c.Frontend {
			fe[i] = string(f)
		}
		parts = append(parts, "frontend="+strings.Join(fe, ","))
	}
	return strings.Join(parts, " ")
}
