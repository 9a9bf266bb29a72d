package plugin

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func appendStep(step string) HookFunc {
	return func(_ context.Context, hc *HookContext) (*HookContext, error) {
		next := *hc
		next.Warnings = append(append([]string(nil), hc.Warnings...), step)
		return &next, nil
	}
}

func TestHookBusFoldsInOrder(t *testing.T) {
	bus := NewHookBus(nil)
	bus.Register("build", "a", appendStep("a1"))
	bus.Register("build", "b", appendStep("b1"))
	bus.Register("build", "a", appendStep("a2"))

	out, err := bus.Run(context.Background(), "build", &HookContext{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diff := cmp.Diff([]string{"a1", "b1", "a2"}, out.Warnings); diff != "" {
		t.Errorf("fold order mismatch (-want +got):\n%s", diff)
	}
}

func TestHookBusNilResultKeepsContext(t *testing.T) {
	bus := NewHookBus(nil)
	bus.Register("build", "observer", func(context.Context, *HookContext) (*HookContext, error) {
		return nil, nil
	})
	bus.Register("build", "writer", appendStep("w"))

	initial := &HookContext{Warnings: []string{"start"}}
	out, err := bus.Run(context.Background(), "build", initial)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diff := cmp.Diff([]string{"start", "w"}, out.Warnings); diff != "" {
		t.Errorf("Warnings mismatch (-want +got):\n%s", diff)
	}
}

func TestHookBusNoHandlers(t *testing.T) {
	bus := NewHookBus(nil)
	initial := &HookContext{Data: map[string]any{"k": "v"}}
	out, err := bus.Run(context.Background(), "unknown", initial)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out != initial {
		t.Error("Run without handlers must return the initial context")
	}
}

func TestHookBusAbortsOnError(t *testing.T) {
	cause := errors.New("schema invalid")
	called := false

	bus := NewHookBus(nil)
	bus.Register(HookValidateConfig, "database", appendStep("db"))
	bus.Register(HookValidateConfig, "orm", func(context.Context, *HookContext) (*HookContext, error) {
		return nil, cause
	})
	bus.Register(HookValidateConfig, "auth", func(context.Context, *HookContext) (*HookContext, error) {
		called = true
		return nil, nil
	})

	out, err := bus.Run(context.Background(), HookValidateConfig, &HookContext{})
	if called {
		t.Error("handler after the failing one must not run")
	}
	if !errors.Is(err, ErrHookFailed) || !errors.Is(err, cause) {
		t.Fatalf("err = %v, want ErrHookFailed wrapping cause", err)
	}
	var hookErr *HookError
	if !errors.As(err, &hookErr) {
		t.Fatalf("err %T is not *HookError", err)
	}
	if hookErr.Plugin != "orm" || hookErr.Hook != HookValidateConfig {
		t.Errorf("HookError = %+v", hookErr)
	}
	if diff := cmp.Diff([]string{"db"}, out.Warnings); diff != "" {
		t.Errorf("context at failure mismatch (-want +got):\n%s", diff)
	}
}

func TestHookBusUnregister(t *testing.T) {
	bus := NewHookBus(nil)
	bus.Register(HookPreGenerate, "a", appendStep("a"))
	bus.Register(HookPostGenerate, "a", appendStep("a"))
	bus.Register(HookPostGenerate, "b", appendStep("b"))

	bus.Unregister("a")

	if bus.Total() != 1 {
		t.Errorf("Total = %d, want 1", bus.Total())
	}
	if diff := cmp.Diff([]string{HookPostGenerate}, bus.Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
}
