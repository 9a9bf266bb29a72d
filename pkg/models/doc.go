// Package models provides shared data models and types for stackgen.
//
// The central type is [ProjectConfig], the set of technology choices for a
// single generation run. Each option is a string-backed enum with an
// IsValid method and a Valid* listing function:
//
//	cfg := &models.ProjectConfig{
//	    ProjectName: "my-app",
//	    Database:    models.DatabaseSQLite,
//	    ORM:         models.ORMDrizzle,
//	    Backend:     models.BackendHono,
//	}
//	if !cfg.Database.IsValid() {
//	    // reject
//	}
//
// [ProjectConfig.Facts] exposes the configuration as a flat variable map for
// plugin applicability rules.
package models
