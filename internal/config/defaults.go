package config

import (
	"github.com/stackgen/stackgen/pkg/models"
)

// DefaultFileName is looked up in the working directory when no
// configuration file is given.
const DefaultFileName = "stackgen.yaml"

// Default value constants to avoid magic numbers and strings.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	DefaultGitBranch      = "main"
	DefaultGitAuthorName  = "stackgen"
	DefaultGitAuthorEmail = "stackgen@localhost"

	// MaxStageRetries bounds per-stage retry overrides.
	MaxStageRetries = 10
)

// NewDefaultConfig returns a Config with compiled defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Defaults: StackDefaults{
			Database:       models.DatabaseSQLite,
			ORM:            models.ORMDrizzle,
			Backend:        models.BackendHono,
			Frontend:       []models.Frontend{models.FrontendReact},
			Auth:           models.AuthNone,
			Addons:         []models.Addon{},
			PackageManager: models.PackageManagerNPM,
			Git:            true,
		},
		Pipeline: PipelineConfig{Stages: map[string]StageConfig{}},
		Git: GitConfig{
			AuthorName:  DefaultGitAuthorName,
			AuthorEmail: DefaultGitAuthorEmail,
			Branch:      DefaultGitBranch,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
