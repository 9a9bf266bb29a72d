package plugin

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/stackgen/stackgen/internal/logfields"
	"github.com/stackgen/stackgen/pkg/models"
)

// HookFunc transforms the hook context. Returning a nil context leaves the
// current value unchanged for the next handler.
type HookFunc func(ctx context.Context, hc *HookContext) (*HookContext, error)

// HookContext is the value threaded through a hook's handlers.
type HookContext struct {
	Config     *models.ProjectConfig
	Generation *GenerationContext
	Results    *ExecutionResult
	Errors     []string
	Warnings   []string
	Data       map[string]any
}

// hookEntry closes over the owning plugin for error attribution.
type hookEntry struct {
	owner   string
	handler HookFunc
}

// HookBus keeps, per hook name, the ordered handlers contributed by plugins
// and runs them as a sequential fold.
type HookBus struct {
	mu     sync.RWMutex
	hooks  map[string][]hookEntry
	logger *slog.Logger
}

// NewHookBus creates an empty bus. A nil logger discards output.
func NewHookBus(logger *slog.Logger) *HookBus {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &HookBus{
		hooks:  make(map[string][]hookEntry),
		logger: logger,
	}
}

// Register appends handler to the hook's list on behalf of owner.
func (b *HookBus) Register(hook, owner string, handler HookFunc) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hooks[hook] = append(b.hooks[hook], hookEntry{owner: owner, handler: handler})
	b.logger.Debug("hook handler registered",
		logfields.Hook(hook),
		logfields.Plugin(owner),
		slog.Int("handler_count", len(b.hooks[hook])),
	)
}

// Unregister removes every handler owned by owner.
func (b *HookBus) Unregister(owner string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for hook, entries := range b.hooks {
		entries = slices.DeleteFunc(entries, func(e hookEntry) bool { return e.owner == owner })
		if len(entries) == 0 {
			delete(b.hooks, hook)
			continue
		}
		b.hooks[hook] = entries
	}
}

// Run folds the hook's handlers over initial, left to right. The first
// failing handler aborts the fold; its error is returned as a *HookError.
// A hook with no handlers returns initial unchanged.
func (b *HookBus) Run(ctx context.Context, hook string, initial *HookContext) (*HookContext, error) {
	b.mu.RLock()
	entries := slices.Clone(b.hooks[hook])
	b.mu.RUnlock()

	current := initial
	for i, e := range entries {
		b.logger.Debug("running hook handler",
			logfields.Hook(hook),
			logfields.Plugin(e.owner),
			slog.Int("handler_index", i),
			slog.Int("handler_total", len(entries)),
		)

		next, err := e.handler(ctx, current)
		if err != nil {
			b.logger.Error("hook handler failed",
				logfields.Hook(hook),
				logfields.Plugin(e.owner),
				logfields.Error(err),
			)
			return current, &HookError{Plugin: e.owner, Hook: hook, Err: err}
		}
		if next != nil {
			current = next
		}
	}
	return current, nil
}

// Count returns the number of handlers registered for hook.
func (b *HookBus) Count(hook string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.hooks[hook])
}

// Total returns the number of handlers across all hooks.
func (b *HookBus) Total() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, entries := range b.hooks {
		n += len(entries)
	}
	return n
}

// Names returns the hook names that have at least one handler, sorted.
func (b *HookBus) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names := make([]string, 0, len(b.hooks))
	for name := range b.hooks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
