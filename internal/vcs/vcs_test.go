package vcs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# demo\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "index.ts"), []byte("export {}\n"), 0o644))

	initer := NewInitializer(WithAuthor(Signature{Name: "Dev", Email: "dev@example.com"}))
	res, err := initer.Init(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "main", res.Branch)
	assert.Len(t, res.Commit, 40)

	repo, err := git.PlainOpen(dir)
	require.NoError(t, err)
	head, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, "main", head.Name().Short())

	commit, err := repo.CommitObject(head.Hash())
	require.NoError(t, err)
	assert.Equal(t, DefaultMessage, strings.TrimSpace(commit.Message))
	assert.Equal(t, "Dev", commit.Author.Name)

	files, err := commit.Files()
	require.NoError(t, err)
	var names []string
	require.NoError(t, files.ForEach(func(f *object.File) error {
		names = append(names, f.Name)
		return nil
	}))
	assert.ElementsMatch(t, []string{"README.md", "src/index.ts"}, names)
}

func TestInitTwice(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644))
	initer := NewInitializer()
	_, err := initer.Init(context.Background(), dir)
	require.NoError(t, err)

	_, err = initer.Init(context.Background(), dir)
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
}

func TestInitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewInitializer().Init(ctx, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}
