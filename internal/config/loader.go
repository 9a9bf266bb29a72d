package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/stackgen/stackgen/pkg/models"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "STACKGEN_"

// Loader reads stackgen.yaml and the optional .env file next to it.
// It is thread-safe via sync.RWMutex.
type Loader struct {
	mu             sync.RWMutex
	logger         *slog.Logger
	lookupEnv      func(string) (string, bool)
	loadedSections map[string]bool
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLoaderLogger sets the logger used for non-fatal warnings.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logger }
}

// WithLookupEnv replaces os.LookupEnv, mainly for tests.
func WithLookupEnv(fn func(string) (string, bool)) LoaderOption {
	return func(l *Loader) { l.lookupEnv = fn }
}

// NewLoader creates a new Loader instance.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{lookupEnv: os.LookupEnv}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l
}

// Load returns the configuration for dir. When path is empty, dir/stackgen.yaml
// is used if present and defaults otherwise; an explicit path must exist.
// Variables from dir/.env apply unless the process environment already sets
// them. The merged result is validated.
func (l *Loader) Load(dir, path string) (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.loadedSections = make(map[string]bool)
	cfg := NewDefaultConfig()

	explicit := path != ""
	if !explicit {
		path = filepath.Join(dir, DefaultFileName)
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := l.decode(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		l.logger.Debug("no config file, using defaults", "path", path)
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	dotenv, err := godotenv.Read(filepath.Join(dir, ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		l.logger.Warn("failed to read .env, ignoring", "error", err)
	}
	applyEnvOverrides(cfg, func(key string) (string, bool) {
		if v, ok := l.lookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	})

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode unmarshals the file over cfg so absent keys keep their defaults,
// and records which top-level sections were present.
func (l *Loader) decode(data []byte, cfg *Config) error {
	var sections map[string]yaml.Node
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	for name := range sections {
		l.loadedSections[name] = true
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return nil
}

// LoadedSections returns a copy of the map indicating which sections
// were present in the configuration file.
func (l *Loader) LoadedSections() map[string]bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]bool, len(l.loadedSections))
	maps.Copy(result, l.loadedSections)
	return result
}

// applyEnvOverrides applies STACKGEN_* variables on top of the file values.
func applyEnvOverrides(cfg *Config, lookup func(string) (string, bool)) {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("DATABASE"); ok {
		cfg.Defaults.Database = models.Database(v)
	}
	if v, ok := get("ORM"); ok {
		cfg.Defaults.ORM = models.ORM(v)
	}
	if v, ok := get("BACKEND"); ok {
		cfg.Defaults.Backend = models.Backend(v)
	}
	if v, ok := get("AUTH"); ok {
		cfg.Defaults.Auth = models.Auth(v)
	}
	if v, ok := get("PACKAGE_MANAGER"); ok {
		cfg.Defaults.PackageManager = models.PackageManager(v)
	}
	if v, ok := get("DATABASE_URL"); ok {
		cfg.Defaults.DatabaseURL = v
	}
	if v, ok := get("REDIS_URL"); ok {
		cfg.Defaults.RedisURL = v
	}
	if v, ok := get("GIT"); ok {
		cfg.Defaults.Git = isTrue(v)
	}
	if v, ok := get("INSTALL"); ok {
		cfg.Defaults.Install = isTrue(v)
	}
	if v, ok := get("LOG_LEVEL"); ok {
		cfg.Logging.Level = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		cfg.Logging.Format = v
	}
	if v, ok := get("METRICS_TEXTFILE"); ok {
		cfg.Metrics.Textfile = v
	}
}

func isTrue(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
