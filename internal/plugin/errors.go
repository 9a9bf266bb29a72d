// Package plugin implements the generation plugin engine: the plugin
// contract, the hook bus that threads a shared context through plugin
// handlers, and the registry that orders plugins by their dependencies and
// runs the applicable ones.
package plugin

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the plugin package.
var (
	// ErrNilPlugin indicates a nil plugin was passed to the registry.
	ErrNilPlugin = errors.New("plugin: nil plugin")

	// ErrInvalidName indicates a plugin declared an empty name.
	ErrInvalidName = errors.New("plugin: empty plugin name")

	// ErrDuplicatePlugin indicates a plugin with the same name is already registered.
	ErrDuplicatePlugin = errors.New("plugin: duplicate plugin name")

	// ErrMissingDependency indicates a declared dependency is not registered.
	ErrMissingDependency = errors.New("plugin: missing dependency")

	// ErrCircularDependency indicates the dependency graph contains a cycle.
	ErrCircularDependency = errors.New("plugin: circular dependency")

	// ErrPluginNotFound indicates no plugin is registered under the given name.
	ErrPluginNotFound = errors.New("plugin: not found")

	// ErrHasDependents indicates a plugin cannot be removed while others depend on it.
	ErrHasDependents = errors.New("plugin: plugin has dependents")

	// ErrHookFailed indicates a hook handler returned an error.
	ErrHookFailed = errors.New("plugin: hook handler failed")

	// ErrPluginPanic indicates a plugin panicked during a lifecycle call.
	ErrPluginPanic = errors.New("plugin: panic during execution")
)

// HookError attributes a hook handler failure to its owning plugin.
type HookError struct {
	Plugin string
	Hook   string
	Err    error
}

// Error implements the error interface.
func (e *HookError) Error() string {
	return fmt.Sprintf("hook %q (plugin %q): %v", e.Hook, e.Plugin, e.Err)
}

// Unwrap returns the handler's error.
func (e *HookError) Unwrap() error {
	return e.Err
}

// Is matches ErrHookFailed so callers can classify without a type assertion.
func (e *HookError) Is(target error) bool {
	return target == ErrHookFailed
}

// CycleError describes a dependency cycle. Path starts and ends with the
// same plugin name.
type CycleError struct {
	Path []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Path, " -> "))
}

// Is matches ErrCircularDependency.
func (e *CycleError) Is(target error) bool {
	return target == ErrCircularDependency
}
