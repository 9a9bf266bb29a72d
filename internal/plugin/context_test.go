package plugin

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/stackgen/stackgen/pkg/models"
)

func TestNewGenerationContext(t *testing.T) {
	cfg := &models.ProjectConfig{ProjectName: "demo", ProjectDir: "/tmp/demo"}
	gc := NewGenerationContext(cfg)

	if gc.RunID == "" {
		t.Error("RunID is empty")
	}
	if gc.ProjectDir != "/tmp/demo" {
		t.Errorf("ProjectDir = %q", gc.ProjectDir)
	}
	if gc.Manifest == nil {
		t.Fatal("Manifest is nil")
	}
	if gc.Logger == nil {
		t.Error("Logger is nil")
	}

	other := NewGenerationContext(cfg, WithRunID("fixed"), WithProjectDir("/out"))
	if other.RunID != "fixed" || other.ProjectDir != "/out" {
		t.Errorf("options not applied: run=%q dir=%q", other.RunID, other.ProjectDir)
	}
}

func TestGenerationContextData(t *testing.T) {
	gc := NewGenerationContext(nil)
	gc.Set("name", "demo")
	gc.Set("ok", true)
	gc.Set("count", 3)

	if gc.String("name") != "demo" || !gc.Bool("ok") || gc.Int("count") != 3 {
		t.Errorf("typed getters returned %q %v %d", gc.String("name"), gc.Bool("ok"), gc.Int("count"))
	}
	if gc.String("count") != "" {
		t.Error("String on a non-string value must return empty")
	}
	if _, ok := gc.Get("missing"); ok {
		t.Error("Get(missing) reported ok")
	}

	gc.AddFiles("a.ts", "b.ts")
	files := gc.Files()
	files[0] = "mutated"
	if diff := cmp.Diff([]string{"a.ts", "b.ts"}, gc.Files()); diff != "" {
		t.Errorf("Files mismatch (-want +got):\n%s", diff)
	}

	gc.Warn("slow disk")
	if diff := cmp.Diff([]string{"slow disk"}, gc.Warnings()); diff != "" {
		t.Errorf("Warnings mismatch (-want +got):\n%s", diff)
	}
}
