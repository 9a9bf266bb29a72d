package pkgmgr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackgen/stackgen/pkg/models"
)

type recordingRunner struct {
	dir  string
	name string
	args []string
	err  error
}

func (r *recordingRunner) Run(_ context.Context, dir, name string, args ...string) ([]byte, error) {
	r.dir, r.name, r.args = dir, name, args
	return []byte("added 1 package\n"), r.err
}

func TestInstall(t *testing.T) {
	tests := []struct {
		pm   models.PackageManager
		want string
	}{
		{models.PackageManagerNPM, "npm"},
		{models.PackageManagerPNPM, "pnpm"},
		{models.PackageManagerBun, "bun"},
		{"", "npm"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			r := &recordingRunner{}
			err := NewInstaller(WithRunner(r)).Install(context.Background(), tt.pm, "/tmp/app")
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.name)
			assert.Equal(t, []string{"install"}, r.args)
			assert.Equal(t, "/tmp/app", r.dir)
		})
	}
}

func TestInstallUnknownManager(t *testing.T) {
	r := &recordingRunner{}
	err := NewInstaller(WithRunner(r)).Install(context.Background(), "yarn", "/tmp/app")
	assert.Error(t, err)
	assert.Empty(t, r.name)
}

func TestInstallRunnerError(t *testing.T) {
	boom := errors.New("exit status 1")
	err := NewInstaller(WithRunner(&recordingRunner{err: boom})).Install(context.Background(), models.PackageManagerNPM, t.TempDir())
	assert.ErrorIs(t, err, boom)
}

func TestExecRunnerMissingBinary(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), t.TempDir(), "stackgen-no-such-binary")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLastLine(t *testing.T) {
	assert.Equal(t, "npm ERR! 404", lastLine("resolving\nnpm ERR! 404\n"))
	assert.Equal(t, "single", lastLine("single"))
}
