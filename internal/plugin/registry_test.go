package plugin

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/stackgen/stackgen/pkg/models"
)

// fake builds a Func plugin for tests.
func fake(name string, priority int, deps ...string) *Func {
	return &Func{Base: NewBase(Meta{Name: name, Version: "1.0.0", Priority: priority, Dependencies: deps})}
}

func mustRegister(t *testing.T, r *Registry, plugins ...Plugin) {
	t.Helper()
	for _, p := range plugins {
		if err := r.Register(p); err != nil {
			t.Fatalf("Register(%s): %v", p.Name(), err)
		}
	}
}

func TestRegisterDuplicate(t *testing.T) {
	tests := []struct {
		name  string
		setup []string
	}{
		{"first registration", nil},
		{"after others", []string{"x", "y"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			for _, n := range tt.setup {
				mustRegister(t, r, fake(n, 0))
			}
			mustRegister(t, r, fake("dup", 0))

			err := r.Register(fake("dup", 5))
			if !errors.Is(err, ErrDuplicatePlugin) {
				t.Fatalf("Register duplicate: got %v, want ErrDuplicatePlugin", err)
			}
			if r.Len() != len(tt.setup)+1 {
				t.Errorf("Len = %d, want %d", r.Len(), len(tt.setup)+1)
			}
		})
	}
}

func TestRegisterRejectsInvalid(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(nil); !errors.Is(err, ErrNilPlugin) {
		t.Errorf("nil plugin: got %v", err)
	}
	if err := r.Register(fake("", 0)); !errors.Is(err, ErrInvalidName) {
		t.Errorf("empty name: got %v", err)
	}
}

func TestRegisterMissingDependency(t *testing.T) {
	hooked := fake("auth", 0, "database")
	hooked.HookMap = map[string][]HookFunc{
		HookPreGenerate: {func(context.Context, *HookContext) (*HookContext, error) { return nil, nil }},
	}

	r := NewRegistry()
	err := r.Register(hooked)
	if !errors.Is(err, ErrMissingDependency) {
		t.Fatalf("got %v, want ErrMissingDependency", err)
	}
	if !strings.Contains(err.Error(), "database") {
		t.Errorf("error %q does not name the dependency", err)
	}
	if r.HookCount() != 0 {
		t.Errorf("HookCount = %d, want 0 after rejected registration", r.HookCount())
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
}

func TestLenientDependencies(t *testing.T) {
	r := NewRegistry(WithLenientDependencies())
	mustRegister(t, r, fake("auth", 0, "database"))

	warnings := r.Warnings()
	if len(warnings) != 1 || !strings.Contains(warnings[0], "database") {
		t.Fatalf("Warnings = %v", warnings)
	}

	// Once the dependency arrives it is honoured despite its higher priority.
	mustRegister(t, r, fake("database", 10))
	if diff := cmp.Diff([]string{"database", "auth"}, r.ExecutionOrder()); diff != "" {
		t.Errorf("ExecutionOrder mismatch (-want +got):\n%s", diff)
	}
}

func TestExecutionOrder(t *testing.T) {
	tests := []struct {
		name    string
		plugins []Plugin
		want    []string
	}{
		{
			name:    "priority only",
			plugins: []Plugin{fake("c", 3), fake("a", 1), fake("b", 2)},
			want:    []string{"a", "b", "c"},
		},
		{
			name:    "ties keep registration order",
			plugins: []Plugin{fake("z", 1), fake("y", 1), fake("x", 0)},
			want:    []string{"x", "z", "y"},
		},
		{
			name:    "dependency beats priority",
			plugins: []Plugin{fake("A", 10), fake("B", 5), fake("C", 1, "A")},
			want:    []string{"A", "C", "B"},
		},
		{
			name: "diamond",
			plugins: []Plugin{
				fake("base", 5),
				fake("left", 1, "base"),
				fake("right", 0, "base"),
				fake("top", -1, "left", "right"),
			},
			want: []string{"base", "left", "right", "top"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			mustRegister(t, r, tt.plugins...)
			if diff := cmp.Diff(tt.want, r.ExecutionOrder()); diff != "" {
				t.Errorf("ExecutionOrder mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExecutionOrderRespectsEveryEdge(t *testing.T) {
	r := NewRegistry()
	mustRegister(t, r, fake("A", 10), fake("B", 5), fake("C", 1, "A"))

	order := r.ExecutionOrder()
	if slices.Index(order, "A") > slices.Index(order, "C") {
		t.Errorf("A must precede C, got %v", order)
	}
}

func TestCircularDependency(t *testing.T) {
	t.Run("batch", func(t *testing.T) {
		r := NewRegistry()
		err := r.RegisterPlugins(fake("A", 0, "B"), fake("B", 0, "A"))
		if !errors.Is(err, ErrCircularDependency) {
			t.Fatalf("got %v, want ErrCircularDependency", err)
		}
		var cycle *CycleError
		if !errors.As(err, &cycle) {
			t.Fatalf("error %T is not a *CycleError", err)
		}
		if !slices.Contains(cycle.Path, "A") && !slices.Contains(cycle.Path, "B") {
			t.Errorf("cycle path %v names neither plugin", cycle.Path)
		}
		if cycle.Path[0] != cycle.Path[len(cycle.Path)-1] {
			t.Errorf("cycle path %v is not closed", cycle.Path)
		}
		if r.Len() != 0 {
			t.Errorf("Len = %d, want 0 after rejected batch", r.Len())
		}
	})

	t.Run("lenient closes cycle", func(t *testing.T) {
		r := NewRegistry(WithLenientDependencies())
		mustRegister(t, r, fake("A", 0, "B"))

		err := r.Register(fake("B", 0, "A"))
		if !errors.Is(err, ErrCircularDependency) {
			t.Fatalf("got %v, want ErrCircularDependency", err)
		}
		if _, ok := r.Plugin("B"); ok {
			t.Error("B must not be registered after a cycle")
		}
		if diff := cmp.Diff([]string{"A"}, r.ExecutionOrder()); diff != "" {
			t.Errorf("ExecutionOrder mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("three node", func(t *testing.T) {
		r := NewRegistry()
		err := r.RegisterPlugins(fake("a", 0, "c"), fake("b", 0, "a"), fake("c", 0, "b"))
		var cycle *CycleError
		if !errors.As(err, &cycle) {
			t.Fatalf("got %v, want *CycleError", err)
		}
		if len(cycle.Path) != 4 {
			t.Errorf("cycle path = %v, want 3 plugins plus closing node", cycle.Path)
		}
	})
}

func TestRegisterPluginsAtomic(t *testing.T) {
	r := NewRegistry()
	mustRegister(t, r, fake("base", 0))

	err := r.RegisterPlugins(fake("orm", 0, "database"), fake("database", 0, "base"), fake("base", 1))
	if !errors.Is(err, ErrDuplicatePlugin) {
		t.Fatalf("got %v, want ErrDuplicatePlugin", err)
	}
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}

	// Forward references inside a batch are allowed.
	if err := r.RegisterPlugins(fake("orm", 0, "database"), fake("database", 0, "base")); err != nil {
		t.Fatalf("RegisterPlugins: %v", err)
	}
	if diff := cmp.Diff([]string{"base", "database", "orm"}, r.ExecutionOrder()); diff != "" {
		t.Errorf("ExecutionOrder mismatch (-want +got):\n%s", diff)
	}
}

func TestUnregister(t *testing.T) {
	r := NewRegistry()
	db := fake("database", 0)
	db.HookMap = map[string][]HookFunc{
		HookPostGenerate: {func(context.Context, *HookContext) (*HookContext, error) { return nil, nil }},
	}
	mustRegister(t, r, db, fake("auth", 1, "database"))

	if err := r.Unregister("missing"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("unknown: got %v", err)
	}
	if err := r.Unregister("database"); !errors.Is(err, ErrHasDependents) {
		t.Errorf("with dependents: got %v", err)
	}

	if err := r.Unregister("auth"); err != nil {
		t.Fatalf("Unregister(auth): %v", err)
	}
	if err := r.Unregister("database"); err != nil {
		t.Fatalf("Unregister(database): %v", err)
	}
	if r.HookCount() != 0 {
		t.Errorf("HookCount = %d, want 0", r.HookCount())
	}
	if len(r.ExecutionOrder()) != 0 {
		t.Errorf("ExecutionOrder = %v, want empty", r.ExecutionOrder())
	}
}

func TestApplicablePlugins(t *testing.T) {
	sqliteOnly := fake("sqlite", 0)
	sqliteOnly.When = func(cfg *models.ProjectConfig) bool { return cfg.Database == models.DatabaseSQLite }
	never := fake("never", 0)
	never.When = func(*models.ProjectConfig) bool { return false }

	r := NewRegistry()
	mustRegister(t, r, sqliteOnly, never, fake("always", 1))

	cfg := &models.ProjectConfig{Database: models.DatabaseSQLite}
	var got []string
	for _, p := range r.ApplicablePlugins(cfg) {
		got = append(got, p.Name())
	}
	if diff := cmp.Diff([]string{"sqlite", "always"}, got); diff != "" {
		t.Errorf("ApplicablePlugins mismatch (-want +got):\n%s", diff)
	}
}

func TestExecutePlugins(t *testing.T) {
	var executed []string
	track := func(p *Func, result any, err error) *Func {
		p.OnExecute = func(context.Context, *models.ProjectConfig, *GenerationContext) (any, error) {
			executed = append(executed, p.Name())
			return result, err
		}
		return p
	}

	skipped := track(fake("skipped", 0), nil, nil)
	skipped.When = func(*models.ProjectConfig) bool { return false }

	r := NewRegistry()
	mustRegister(t, r,
		track(fake("first", 1), "ok", nil),
		track(fake("broken", 2), nil, errors.New("template missing")),
		skipped,
		track(fake("last", 3), 42, nil),
	)

	res := r.ExecutePlugins(context.Background(), &models.ProjectConfig{}, nil)

	if diff := cmp.Diff([]string{"first", "broken", "last"}, executed); diff != "" {
		t.Errorf("executed mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"first", "last"}, res.SuccessNames()); diff != "" {
		t.Errorf("SuccessNames mismatch (-want +got):\n%s", diff)
	}
	if len(res.Failed) != 1 || res.Failed[0].Plugin != "broken" {
		t.Fatalf("Failed = %+v", res.Failed)
	}
	if res.Failed[0].Err.Error() != "template missing" {
		t.Errorf("failure message = %q", res.Failed[0].Err)
	}
	if res.Success[1].Result != 42 {
		t.Errorf("last result = %v, want 42", res.Success[1].Result)
	}
}

func TestExecutePluginsRecoversPanic(t *testing.T) {
	p := fake("panicky", 0)
	p.OnExecute = func(context.Context, *models.ProjectConfig, *GenerationContext) (any, error) {
		panic("boom")
	}

	r := NewRegistry()
	mustRegister(t, r, p, fake("after", 1))

	res := r.ExecutePlugins(context.Background(), &models.ProjectConfig{}, nil)
	if len(res.Failed) != 1 || !errors.Is(res.Failed[0].Err, ErrPluginPanic) {
		t.Fatalf("Failed = %+v", res.Failed)
	}
	if diff := cmp.Diff([]string{"after"}, res.SuccessNames()); diff != "" {
		t.Errorf("SuccessNames mismatch (-want +got):\n%s", diff)
	}
}

func TestExecutePluginsInitializeAndCleanup(t *testing.T) {
	var calls []string
	lifecycle := func(name string, initErr, cleanupErr error) *Func {
		p := fake(name, len(calls))
		p.OnInit = func(context.Context, *GenerationContext) error {
			calls = append(calls, "init:"+name)
			return initErr
		}
		p.OnCleanup = func(context.Context) error {
			calls = append(calls, "cleanup:"+name)
			return cleanupErr
		}
		return p
	}

	a := lifecycle("a", nil, nil)
	a.Meta.Priority = 0
	b := lifecycle("b", errors.New("no workspace"), nil)
	b.Meta.Priority = 1
	c := lifecycle("c", nil, errors.New("temp dir busy"))
	c.Meta.Priority = 2

	r := NewRegistry()
	mustRegister(t, r, a, b, c)
	res := r.ExecutePlugins(context.Background(), &models.ProjectConfig{}, nil)

	want := []string{"init:a", "init:b", "init:c", "cleanup:c", "cleanup:a"}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("lifecycle calls mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b"}, res.FailedNames()); diff != "" {
		t.Errorf("FailedNames mismatch (-want +got):\n%s", diff)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "temp dir busy") {
		t.Errorf("Warnings = %v", res.Warnings)
	}
}

func TestExecutePluginsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	first := fake("first", 0)
	first.OnExecute = func(context.Context, *models.ProjectConfig, *GenerationContext) (any, error) {
		cancel()
		return nil, nil
	}

	r := NewRegistry()
	mustRegister(t, r, first, fake("second", 1), fake("third", 2))

	res := r.ExecutePlugins(ctx, &models.ProjectConfig{}, nil)
	if diff := cmp.Diff([]string{"first"}, res.SuccessNames()); diff != "" {
		t.Errorf("SuccessNames mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"second", "third"}, res.FailedNames()); diff != "" {
		t.Errorf("FailedNames mismatch (-want +got):\n%s", diff)
	}
	for _, f := range res.Failed {
		if !errors.Is(f.Err, context.Canceled) {
			t.Errorf("%s: err = %v, want context.Canceled", f.Plugin, f.Err)
		}
	}
}

func TestDependencyApplicabilityPolicy(t *testing.T) {
	build := func() []Plugin {
		db := fake("database", 0)
		db.When = func(cfg *models.ProjectConfig) bool { return cfg.Database != models.DatabaseNone }
		return []Plugin{db, fake("orm", 1, "database"), fake("seed", 2, "orm")}
	}
	cfg := &models.ProjectConfig{Database: models.DatabaseNone}

	t.Run("ordering only", func(t *testing.T) {
		r := NewRegistry()
		mustRegister(t, r, build()...)
		res := r.ExecutePlugins(context.Background(), cfg, nil)
		if diff := cmp.Diff([]string{"orm", "seed"}, res.SuccessNames()); diff != "" {
			t.Errorf("SuccessNames mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("dependencies must be applicable", func(t *testing.T) {
		r := NewRegistry(WithApplicableDependencies())
		mustRegister(t, r, build()...)
		res := r.ExecutePlugins(context.Background(), cfg, nil)
		if len(res.Success) != 0 || len(res.Failed) != 0 {
			t.Errorf("got success=%v failed=%v, want none", res.SuccessNames(), res.FailedNames())
		}
		if len(res.Warnings) != 2 {
			t.Errorf("Warnings = %v, want one per skipped plugin", res.Warnings)
		}
	})
}

func TestExecutePluginsSharesContext(t *testing.T) {
	writer := fake("writer", 0)
	writer.OnExecute = func(_ context.Context, _ *models.ProjectConfig, gc *GenerationContext) (any, error) {
		gc.Set("schema", "users")
		return nil, nil
	}
	reader := fake("reader", 1, "writer")
	reader.OnExecute = func(_ context.Context, _ *models.ProjectConfig, gc *GenerationContext) (any, error) {
		return gc.String("schema"), nil
	}

	r := NewRegistry()
	mustRegister(t, r, writer, reader)

	cfg := &models.ProjectConfig{ProjectName: "demo"}
	gc := NewGenerationContext(cfg)
	res := r.ExecutePlugins(context.Background(), cfg, gc)
	if got := res.Success[1].Result; got != "users" {
		t.Errorf("reader saw %v, want users", got)
	}
}

func TestStats(t *testing.T) {
	p := fake("a", 0)
	p.HookMap = map[string][]HookFunc{
		HookPreGenerate:  {func(context.Context, *HookContext) (*HookContext, error) { return nil, nil }},
		HookPostGenerate: {func(context.Context, *HookContext) (*HookContext, error) { return nil, nil }},
	}
	r := NewRegistry()
	mustRegister(t, r, p, fake("b", 1))

	want := RegistryStats{Plugins: 2, Hooks: 2, ExecutionOrder: []string{"a", "b"}}
	if diff := cmp.Diff(want, r.Stats()); diff != "" {
		t.Errorf("Stats mismatch (-want +got):\n%s", diff)
	}
}

func TestRegisterPluginsWiresHooksInExecutionOrder(t *testing.T) {
	withHook := func(name string, deps ...string) *Func {
		p := fake(name, 0, deps...)
		p.HookMap = map[string][]HookFunc{HookPreGenerate: {appendStep(name)}}
		return p
	}

	r := NewRegistry()
	if err := r.RegisterPlugins(withHook("auth", "database"), withHook("database")); err != nil {
		t.Fatalf("RegisterPlugins: %v", err)
	}
	if diff := cmp.Diff([]string{"database", "auth"}, r.ExecutionOrder()); diff != "" {
		t.Fatalf("ExecutionOrder mismatch (-want +got):\n%s", diff)
	}

	out, err := r.Hooks().Run(context.Background(), HookPreGenerate, &HookContext{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diff := cmp.Diff([]string{"database", "auth"}, out.Warnings); diff != "" {
		t.Errorf("hook order mismatch (-want +got):\n%s", diff)
	}
}

func TestPanickingPredicate(t *testing.T) {
	bad := fake("bad", 0)
	bad.When = func(*models.ProjectConfig) bool { panic("bad predicate") }

	r := NewRegistry()
	mustRegister(t, r, bad, fake("good", 1))

	if got := r.ApplicablePlugins(&models.ProjectConfig{}); len(got) != 1 || got[0].Name() != "good" {
		t.Errorf("ApplicablePlugins = %v", got)
	}

	res := r.ExecutePlugins(context.Background(), &models.ProjectConfig{}, nil)
	if len(res.Failed) != 1 || res.Failed[0].Plugin != "bad" || !errors.Is(res.Failed[0].Err, ErrPluginPanic) {
		t.Fatalf("Failed = %+v", res.Failed)
	}
	if diff := cmp.Diff([]string{"good"}, res.SuccessNames()); diff != "" {
		t.Errorf("SuccessNames mismatch (-want +got):\n%s", diff)
	}
}
