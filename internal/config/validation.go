package config

import (
	"fmt"
	"maps"
	"slices"
)

var (
	validLogLevels  = []string{"debug", "info", "warn", "error"}
	validLogFormats = []string{"text", "json"}
)

// Validate checks the configuration for correctness and returns
// Problems listing everything found.
func Validate(cfg *Config) error {
	var errs Problems
	errs = append(errs, validateDefaults(&cfg.Defaults)...)
	errs = append(errs, validatePipeline(&cfg.Pipeline)...)
	errs = append(errs, validatePlugins(&cfg.Plugins)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateDefaults(d *StackDefaults) Problems {
	var errs Problems
	option := func(field string, value string, ok bool) {
		if value != "" && !ok {
			errs = append(errs, FieldError{
				Path:   "defaults." + field,
				Reason: "unknown value",
				Got:    value,
				Kind:   ErrInvalidStackOption,
			})
		}
	}

	option("database", string(d.Database), d.Database.IsValid())
	option("orm", string(d.ORM), d.ORM.IsValid())
	option("backend", string(d.Backend), d.Backend.IsValid())
	option("auth", string(d.Auth), d.Auth.IsValid())
	option("package_manager", string(d.PackageManager), d.PackageManager.IsValid())
	for _, f := range d.Frontend {
		option("frontend", string(f), f.IsValid())
	}
	for _, a := range d.Addons {
		option("addons", string(a), a.IsValid())
	}
	return errs
}

func validatePipeline(p *PipelineConfig) Problems {
	var errs Problems
	for _, name := range slices.Sorted(maps.Keys(p.Stages)) {
		sc := p.Stages[name]
		if sc.Timeout < 0 {
			errs = append(errs, FieldError{
				Path:   fmt.Sprintf("pipeline.stages.%s.timeout", name),
				Reason: "must not be negative",
				Got:    sc.Timeout,
				Kind:   ErrInvalidConfig,
			})
		}
		if sc.Retries != nil && (*sc.Retries < 0 || *sc.Retries > MaxStageRetries) {
			errs = append(errs, FieldError{
				Path:   fmt.Sprintf("pipeline.stages.%s.retries", name),
				Reason: fmt.Sprintf("must be between 0 and %d", MaxStageRetries),
				Got:    *sc.Retries,
				Kind:   ErrInvalidConfig,
			})
		}
	}
	if p.BackoffBase < 0 || p.BackoffMax < 0 {
		errs = append(errs, FieldError{
			Path:   "pipeline.backoff",
			Reason: "durations must not be negative",
			Kind:   ErrInvalidConfig,
		})
	}
	return errs
}

func validatePlugins(p *PluginsConfig) Problems {
	var errs Problems
	seen := make(map[string]bool, len(p.Custom))
	for i, c := range p.Custom {
		field := fmt.Sprintf("plugins.custom[%d]", i)
		if c.Name == "" {
			errs = append(errs, FieldError{Path: field + ".name", Reason: "required field is empty", Kind: ErrInvalidConfig})
		} else if seen[c.Name] {
			errs = append(errs, FieldError{Path: field + ".name", Reason: "duplicate name", Got: c.Name, Kind: ErrDuplicatePlugin})
		}
		seen[c.Name] = true
		if c.Dir == "" {
			errs = append(errs, FieldError{Path: field + ".dir", Reason: "required field is empty", Kind: ErrInvalidConfig})
		}
	}
	return errs
}

func validateLogging(l *LoggingConfig) Problems {
	var errs Problems
	if !slices.Contains(validLogLevels, l.Level) {
		errs = append(errs, FieldError{Path: "logging.level", Reason: "must be one of debug, info, warn, error", Got: l.Level, Kind: ErrInvalidConfig})
	}
	if !slices.Contains(validLogFormats, l.Format) {
		errs = append(errs, FieldError{Path: "logging.format", Reason: "must be text or json", Got: l.Format, Kind: ErrInvalidConfig})
	}
	return errs
}
