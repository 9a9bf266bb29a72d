// Package pkgmgr runs the JavaScript package manager inside a generated project.
package pkgmgr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/stackgen/stackgen/pkg/models"
)

// ErrNotFound indicates the package manager binary is not on PATH.
var ErrNotFound = errors.New("pkgmgr: executable not found")

// Runner executes a command in dir and returns its combined output.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run looks name up on PATH and runs it in dir.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "CI=1", "NO_UPDATE_NOTIFIER=1")

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return out.Bytes(), fmt.Errorf("%s %s: %s: %w", name, strings.Join(args, " "), lastLine(out.String()), err)
	}
	return out.Bytes(), nil
}

// Installer installs project dependencies.
type Installer struct {
	runner Runner
	logger *slog.Logger
}

// Option configures an Installer.
type Option func(*Installer)

// WithRunner replaces the command runner.
func WithRunner(r Runner) Option {
	return func(i *Installer) { i.runner = r }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Installer) { i.logger = logger }
}

// NewInstaller creates an Installer that shells out via ExecRunner.
func NewInstaller(opts ...Option) *Installer {
	i := &Installer{runner: ExecRunner{}}
	for _, opt := range opts {
		opt(i)
	}
	if i.logger == nil {
		i.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return i
}

// Install runs "<pm> install" in dir. An empty package manager means npm.
func (i *Installer) Install(ctx context.Context, pm models.PackageManager, dir string) error {
	if pm == "" {
		pm = models.PackageManagerNPM
	}
	if !pm.IsValid() {
		return fmt.Errorf("pkgmgr: unknown package manager %q", pm)
	}

	i.logger.Debug("installing dependencies", "package_manager", string(pm), "dir", dir)
	out, err := i.runner.Run(ctx, dir, string(pm), "install")
	if err != nil {
		return err
	}
	i.logger.Debug("install finished", "output_bytes", len(out))
	return nil
}

func lastLine(s string) string {
	s = strings.TrimRight(s, "\n\r")
	if idx := strings.LastIndexByte(s, '\n'); idx >= 0 {
		return s[idx+1:]
	}
	return s
}
