// Package vcs initialises a git repository for a freshly generated project.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// DefaultMessage is the commit message used for the initial commit.
const DefaultMessage = "Initial commit from stackgen"

// ErrAlreadyInitialized indicates the project directory already holds a repository.
var ErrAlreadyInitialized = errors.New("vcs: repository already initialized")

// Signature identifies the author of the initial commit.
type Signature struct {
	Name  string
	Email string
}

// DefaultSignature is used when no author is configured.
var DefaultSignature = Signature{Name: "stackgen", Email: "stackgen@localhost"}

// Initializer creates a repository and records the generated files.
type Initializer struct {
	author  Signature
	message string
	branch  string
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures an Initializer.
type Option func(*Initializer)

// WithAuthor sets the commit author.
func WithAuthor(sig Signature) Option {
	return func(i *Initializer) { i.author = sig }
}

// WithMessage overrides the initial commit message.
func WithMessage(msg string) Option {
	return func(i *Initializer) { i.message = msg }
}

// WithBranch sets the initial branch name. Default "main".
func WithBranch(name string) Option {
	return func(i *Initializer) { i.branch = name }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Initializer) { i.logger = logger }
}

// NewInitializer creates an Initializer with defaults applied.
func NewInitializer(opts ...Option) *Initializer {
	i := &Initializer{
		author:  DefaultSignature,
		message: DefaultMessage,
		branch:  "main",
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.logger == nil {
		i.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return i
}

// Result describes the repository created by Init.
type Result struct {
	Branch string
	Commit string
}

// Init runs git init in dir, stages every file and creates the initial
// commit. It fails with ErrAlreadyInitialized if dir is already a repository.
func (i *Initializer) Init(ctx context.Context, dir string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName(i.branch)},
	})
	if errors.Is(err, git.ErrRepositoryAlreadyExists) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyInitialized, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("git init %s: %w", dir, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("git worktree: %w", err)
	}
	if err := wt.AddGlob("."); err != nil && !errors.Is(err, git.ErrGlobNoMatches) {
		return nil, fmt.Errorf("git add: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash, err := wt.Commit(i.message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  i.author.Name,
			Email: i.author.Email,
			When:  i.now(),
		},
		AllowEmptyCommits: true,
	})
	if err != nil {
		return nil, fmt.Errorf("git commit: %w", err)
	}

	i.logger.Debug("repository initialized", "dir", dir, "branch", i.branch, "commit", hash.String())
	return &Result{Branch: i.branch, Commit: hash.String()}, nil
}
