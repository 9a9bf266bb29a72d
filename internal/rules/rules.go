// Package rules compiles CEL applicability expressions such as
//
//	database != "none" && "react" in frontend
//
// and evaluates them against a project configuration. Custom template
// plugins use them as their CanHandle predicate.
package rules

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/stackgen/stackgen/pkg/models"
)

var (
	// ErrCompile indicates an expression failed to parse or type-check.
	ErrCompile = errors.New("rules: invalid expression")

	// ErrNotBoolean indicates an expression does not produce a bool.
	ErrNotBoolean = errors.New("rules: expression is not boolean")
)

// Engine compiles expressions against the project configuration schema.
// Compiled rules are cached by source text. Safe for concurrent use.
type Engine struct {
	env *cel.Env

	mu    sync.Mutex
	cache map[string]*Rule
}

// NewEngine creates an engine whose variables mirror models.ProjectConfig.Facts.
func NewEngine() (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("project_name", cel.StringType),
		cel.Variable("database", cel.StringType),
		cel.Variable("orm", cel.StringType),
		cel.Variable("backend", cel.StringType),
		cel.Variable("frontend", cel.ListType(cel.StringType)),
		cel.Variable("auth", cel.StringType),
		cel.Variable("addons", cel.ListType(cel.StringType)),
		cel.Variable("package_manager", cel.StringType),
		cel.Variable("git", cel.BoolType),
		cel.Variable("install", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}
	return &Engine{env: env, cache: make(map[string]*Rule)}, nil
}

// Rule is a compiled boolean expression.
type Rule struct {
	source  string
	program cel.Program
}

// Compile parses and type-checks expr. The result must be boolean.
func (e *Engine) Compile(expr string) (*Rule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if r, ok := e.cache[expr]; ok {
		return r, nil
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrCompile, expr, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("%w: %q yields %s", ErrNotBoolean, expr, ast.OutputType())
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrCompile, expr, err)
	}

	r := &Rule{source: expr, program: prg}
	e.cache[expr] = r
	return r, nil
}

// Eval evaluates the rule against cfg.
func (r *Rule) Eval(cfg *models.ProjectConfig) (bool, error) {
	out, _, err := r.program.Eval(cfg.Facts())
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", r.source, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q returned %T", ErrNotBoolean, r.source, out.Value())
	}
	return b, nil
}

// Matches evaluates the rule and treats evaluation errors as false.
func (r *Rule) Matches(cfg *models.ProjectConfig) bool {
	ok, err := r.Eval(cfg)
	return err == nil && ok
}

// String returns the source expression.
func (r *Rule) String() string {
	return r.source
}
