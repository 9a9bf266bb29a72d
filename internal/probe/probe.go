// Package probe bootstraps and checks the data stores a generated project
// points at: the local SQLite file, an existing MySQL server, or Redis.
package probe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"github.com/stackgen/stackgen/pkg/models"
)

// SQLiteFile is the database file created for sqlite projects.
const SQLiteFile = "local.db"

// DefaultTimeout bounds a single connectivity check.
const DefaultTimeout = 5 * time.Second

var (
	// ErrInvalidTarget indicates a connection string could not be parsed.
	ErrInvalidTarget = errors.New("probe: invalid target")

	// ErrUnreachable indicates the store did not answer a ping.
	ErrUnreachable = errors.New("probe: unreachable")
)

// Status is the outcome of one check.
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Check records one probe.
type Check struct {
	Name   string
	Target string
	Status Status
	Detail string
}

// Report collects the checks of one Run.
type Report struct {
	Checks []Check
}

// Failed returns the checks that did not succeed.
func (r *Report) Failed() []Check {
	var out []Check
	for _, c := range r.Checks {
		if c.Status == StatusFailed {
			out = append(out, c)
		}
	}
	return out
}

func (r *Report) add(name, target string, err error) {
	c := Check{Name: name, Target: target, Status: StatusOK}
	if err != nil {
		c.Status = StatusFailed
		c.Detail = err.Error()
	}
	r.Checks = append(r.Checks, c)
}

// Prober runs the checks for a project configuration.
type Prober struct {
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithTimeout bounds each network check.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) { p.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Prober) { p.logger = logger }
}

// New creates a Prober.
func New(opts ...Option) *Prober {
	p := &Prober{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p
}

// Run performs every check that applies to cfg. SQLite projects get their
// database file created with schema; MySQL and Redis are pinged when a URL
// is configured. Engines without a bundled driver are reported as skipped.
// The returned error joins every failed check.
func (p *Prober) Run(ctx context.Context, cfg *models.ProjectConfig, projectDir string, schema string) (*Report, error) {
	report := &Report{}

	switch cfg.Database {
	case models.DatabaseSQLite:
		path := filepath.Join(projectDir, SQLiteFile)
		report.add("sqlite", path, BootstrapSQLite(ctx, path, schema))
	case models.DatabaseMySQL:
		if cfg.DatabaseURL != "" {
			report.add("mysql", redact(cfg.DatabaseURL), p.MySQL(ctx, cfg.DatabaseURL))
		}
	case models.DatabaseNone:
	default:
		report.Checks = append(report.Checks, Check{
			Name:   string(cfg.Database),
			Status: StatusSkipped,
			Detail: "no bundled driver",
		})
	}
	if cfg.RedisURL != "" {
		report.add("redis", redact(cfg.RedisURL), p.Redis(ctx, cfg.RedisURL))
	}

	var errs []error
	for _, c := range report.Failed() {
		errs = append(errs, fmt.Errorf("%s: %s", c.Name, c.Detail))
	}
	for _, c := range report.Checks {
		p.logger.Debug("probe", "name", c.Name, "status", string(c.Status))
	}
	return report, errors.Join(errs...)
}

// BootstrapSQLite creates the database file at path and applies schema.
func BootstrapSQLite(ctx context.Context, path, schema string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: sqlite %s: %v", ErrUnreachable, path, err)
	}
	if strings.TrimSpace(schema) == "" {
		return nil
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply sqlite schema: %w", err)
	}
	return nil
}

// MySQL pings the server behind raw, which is either a driver DSN
// (user:pass@tcp(host:3306)/db) or a mysql:// URL.
func (p *Prober) MySQL(ctx context.Context, raw string) error {
	dsn, err := mysqlDSN(raw)
	if err != nil {
		return err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("open mysql: %w", err)
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: mysql: %v", ErrUnreachable, err)
	}
	return nil
}

// Redis pings the server at a redis:// or rediss:// URL.
func (p *Prober) Redis(ctx context.Context, raw string) error {
	opts, err := redis.ParseURL(raw)
	if err != nil {
		return fmt.Errorf("%w: redis url: %v", ErrInvalidTarget, err)
	}
	opts.DialTimeout = p.timeout
	opts.MaxRetries = -1

	client := redis.NewClient(opts)
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: redis: %v", ErrUnreachable, err)
	}
	return nil
}

func mysqlDSN(raw string) (string, error) {
	if !strings.HasPrefix(raw, "mysql://") {
		cfg, err := mysql.ParseDSN(raw)
		if err != nil {
			return "", fmt.Errorf("%w: mysql dsn: %v", ErrInvalidTarget, err)
		}
		return cfg.FormatDSN(), nil
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: mysql url %q", ErrInvalidTarget, redact(raw))
	}
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = u.Host + ":3306"
	}
	cfg.User = u.User.Username()
	cfg.Passwd, _ = u.User.Password()
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	return cfg.FormatDSN(), nil
}

// redact hides the password of a URL or DSN for logs and reports.
func redact(raw string) string {
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil || u.User == nil {
			return raw
		}
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
		return u.String()
	}
	if cfg, err := mysql.ParseDSN(raw); err == nil && cfg.Passwd != "" {
		cfg.Passwd = "xxxxx"
		return cfg.FormatDSN()
	}
	return raw
}
