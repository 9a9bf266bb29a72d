// Package config loads stackgen.yaml, applies compiled defaults, .env and
// STACKGEN_* environment overrides, and validates the result.
package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfigNotFound is returned when an explicitly named file is missing.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	ErrInvalidConfig = errors.New("config: invalid configuration")
	ErrInvalidYAML   = errors.New("config: invalid YAML syntax")

	// ErrInvalidStackOption marks an unknown database, ORM, backend or
	// similar value under defaults.
	ErrInvalidStackOption = errors.New("config: invalid stack option")

	ErrDuplicatePlugin = errors.New("config: duplicate custom plugin")
)

// FieldError is one problem at a dotted path inside stackgen.yaml, such as
// "plugins.custom[1].dir".
type FieldError struct {
	Path   string
	Reason string
	Got    any
	Kind   error
}

func (e FieldError) Error() string {
	if e.Got == nil {
		return e.Path + ": " + e.Reason
	}
	return fmt.Sprintf("%s: %s (got %v)", e.Path, e.Reason, e.Got)
}

func (e FieldError) Unwrap() error { return e.Kind }

// Problems collects every FieldError found by Validate. It always matches
// ErrInvalidConfig and also matches the Kind of each entry.
type Problems []FieldError

func (p Problems) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "stackgen.yaml has %d problem(s)", len(p))
	for _, fe := range p {
		b.WriteString("\n  ")
		b.WriteString(fe.Error())
	}
	return b.String()
}

func (p Problems) Is(target error) bool {
	return target == ErrInvalidConfig
}

func (p Problems) Unwrap() []error {
	errs := make([]error, len(p))
	for i, fe := range p {
		errs[i] = fe
	}
	return errs
}

// Paths returns the path of every problem in order.
func (p Problems) Paths() []string {
	paths := make([]string, len(p))
	for i, fe := range p {
		paths[i] = fe.Path
	}
	return paths
}
