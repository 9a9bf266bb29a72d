package generator

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/stackgen/stackgen/internal/plugin"
	"github.com/stackgen/stackgen/pkg/models"
)

func newPlugin(name string, deps []string, applies bool) *plugin.Func {
	return &plugin.Func{
		Base: plugin.NewBase(plugin.Meta{Name: name, Version: "1.0.0", Dependencies: deps}),
		When: func(*models.ProjectConfig) bool { return applies },
		OnExecute: func(context.Context, *models.ProjectConfig, *plugin.GenerationContext) (any, error) {
			return name + " done", nil
		},
	}
}

func TestGenerateEndToEnd(t *testing.T) {
	g := New()
	err := g.RegisterPlugins(
		newPlugin("DbPlugin", nil, true),
		newPlugin("AuthPlugin", []string{"DbPlugin"}, true),
		newPlugin("ReadmePlugin", nil, false),
	)
	if err != nil {
		t.Fatalf("RegisterPlugins: %v", err)
	}

	res, err := g.Generate(context.Background(), &models.ProjectConfig{ProjectName: "demo"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if diff := cmp.Diff([]string{"DbPlugin", "AuthPlugin"}, res.SuccessNames()); diff != "" {
		t.Errorf("SuccessNames mismatch (-want +got):\n%s", diff)
	}
	if len(res.Failed) != 0 {
		t.Errorf("Failed = %v, want empty", res.FailedNames())
	}
}

func TestGenerateHookPhases(t *testing.T) {
	var phases []string
	p := newPlugin("recorder", nil, true)
	p.OnExecute = func(context.Context, *models.ProjectConfig, *plugin.GenerationContext) (any, error) {
		phases = append(phases, "execute")
		return nil, nil
	}
	p.HookMap = map[string][]plugin.HookFunc{
		plugin.HookPreGenerate: {func(_ context.Context, hc *plugin.HookContext) (*plugin.HookContext, error) {
			phases = append(phases, "pre")
			hc.Data["marker"] = "set in pre"
			hc.Warnings = append(hc.Warnings, "pre warning")
			return hc, nil
		}},
		plugin.HookPostGenerate: {func(_ context.Context, hc *plugin.HookContext) (*plugin.HookContext, error) {
			phases = append(phases, "post")
			if hc.Results == nil || len(hc.Results.Success) != 1 {
				t.Errorf("postGenerate saw results %+v", hc.Results)
			}
			if hc.Data["marker"] != "set in pre" {
				t.Errorf("postGenerate lost hook data: %v", hc.Data)
			}
			return nil, nil
		}},
	}

	g := New()
	if err := g.Register(p); err != nil {
		t.Fatalf("Register: %v", err)
	}
	res, err := g.Generate(context.Background(), &models.ProjectConfig{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if diff := cmp.Diff([]string{"pre", "execute", "post"}, phases); diff != "" {
		t.Errorf("phase order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"pre warning"}, res.Warnings); diff != "" {
		t.Errorf("Warnings mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateHookFailureIsFatal(t *testing.T) {
	cause := errors.New("disk full")
	tests := []struct {
		name         string
		hook         string
		wantExecuted bool
	}{
		{"pre", plugin.HookPreGenerate, false},
		{"post", plugin.HookPostGenerate, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			executed := false
			p := newPlugin("writer", nil, true)
			p.OnExecute = func(context.Context, *models.ProjectConfig, *plugin.GenerationContext) (any, error) {
				executed = true
				return nil, nil
			}
			p.HookMap = map[string][]plugin.HookFunc{
				tt.hook: {func(context.Context, *plugin.HookContext) (*plugin.HookContext, error) { return nil, cause }},
			}

			g := New()
			if err := g.Register(p); err != nil {
				t.Fatalf("Register: %v", err)
			}
			res, err := g.Generate(context.Background(), &models.ProjectConfig{})
			if res != nil {
				t.Errorf("result = %+v, want nil", res)
			}
			if !errors.Is(err, plugin.ErrHookFailed) || !errors.Is(err, cause) {
				t.Fatalf("err = %v", err)
			}
			if !strings.Contains(err.Error(), "writer") {
				t.Errorf("error %q does not name the plugin", err)
			}
			if executed != tt.wantExecuted {
				t.Errorf("executed = %v, want %v", executed, tt.wantExecuted)
			}
		})
	}
}

func TestValidateConfig(t *testing.T) {
	t.Run("no handlers", func(t *testing.T) {
		res := New().ValidateConfig(context.Background(), &models.ProjectConfig{})
		if !res.IsValid {
			t.Errorf("got %+v, want valid", res)
		}
	})

	t.Run("handler reports problem", func(t *testing.T) {
		p := newPlugin("orm", nil, true)
		p.HookMap = map[string][]plugin.HookFunc{
			plugin.HookValidateConfig: {func(_ context.Context, hc *plugin.HookContext) (*plugin.HookContext, error) {
				if hc.Config.ORM == models.ORMMongoose && hc.Config.Database != models.DatabaseMongoDB {
					hc.Errors = append(hc.Errors, "mongoose requires mongodb")
				}
				return hc, nil
			}},
		}
		g := New()
		if err := g.Register(p); err != nil {
			t.Fatalf("Register: %v", err)
		}
		res := g.ValidateConfig(context.Background(), &models.ProjectConfig{ORM: models.ORMMongoose, Database: models.DatabaseSQLite})
		if res.IsValid {
			t.Fatal("expected invalid")
		}
		if diff := cmp.Diff([]string{"mongoose requires mongodb"}, res.Errors); diff != "" {
			t.Errorf("Errors mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("handler error is wrapped", func(t *testing.T) {
		p := newPlugin("broken", nil, true)
		p.HookMap = map[string][]plugin.HookFunc{
			plugin.HookValidateConfig: {func(context.Context, *plugin.HookContext) (*plugin.HookContext, error) {
				return nil, errors.New("rule engine offline")
			}},
		}
		g := New()
		if err := g.Register(p); err != nil {
			t.Fatalf("Register: %v", err)
		}
		res := g.ValidateConfig(context.Background(), &models.ProjectConfig{})
		if res.IsValid || len(res.Errors) != 1 || !strings.Contains(res.Errors[0], "rule engine offline") {
			t.Errorf("got %+v", res)
		}
	})
}

func TestStats(t *testing.T) {
	g := New()

	stats := g.Stats()
	if !math.IsNaN(stats.SuccessRate) {
		t.Errorf("SuccessRate before any run = %v, want NaN", stats.SuccessRate)
	}

	failing := newPlugin("failing", nil, true)
	failing.OnExecute = func(context.Context, *models.ProjectConfig, *plugin.GenerationContext) (any, error) {
		return nil, errors.New("nope")
	}
	if err := g.RegisterPlugins(newPlugin("a", nil, true), newPlugin("b", nil, true), failing); err != nil {
		t.Fatalf("RegisterPlugins: %v", err)
	}

	for range 2 {
		if _, err := g.Generate(context.Background(), &models.ProjectConfig{}); err != nil {
			t.Fatalf("Generate: %v", err)
		}
	}

	stats = g.Stats()
	if stats.Plugins != 3 || stats.Successes != 4 || stats.Failures != 2 {
		t.Errorf("Stats = %+v", stats)
	}
	if math.Abs(stats.SuccessRate-66.67) > 0.01 {
		t.Errorf("SuccessRate = %v, want 66.67", stats.SuccessRate)
	}
	if diff := cmp.Diff([]string{"a", "b", "failing"}, stats.ExecutionOrder); diff != "" {
		t.Errorf("ExecutionOrder mismatch (-want +got):\n%s", diff)
	}
}

func TestGeneratorsAreIndependent(t *testing.T) {
	a, b := New(), New()
	if err := a.Register(newPlugin("only-a", nil, true)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if b.Registry().Len() != 0 {
		t.Error("registries must not be shared between generators")
	}
}
