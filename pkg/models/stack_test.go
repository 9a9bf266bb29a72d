package models

import (
	"testing"
)

func TestEnumValidity(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"sqlite", Database("sqlite").IsValid()},
		{"drizzle", ORM("drizzle").IsValid()},
		{"hono", Backend("hono").IsValid()},
		{"react", Frontend("react").IsValid()},
		{"better-auth", Auth("better-auth").IsValid()},
		{"docs", Addon("docs").IsValid()},
		{"bun", PackageManager("bun").IsValid()},
	}
	for _, tt := range tests {
		if !tt.valid {
			t.Errorf("%q should be valid", tt.name)
		}
	}

	invalid := []bool{
		Database("oracle").IsValid(),
		ORM("").IsValid(),
		Backend("rails").IsValid(),
		Frontend("none").IsValid(),
		Auth("clerk").IsValid(),
		Addon("tauri").IsValid(),
		PackageManager("yarn").IsValid(),
	}
	for i, v := range invalid {
		if v {
			t.Errorf("invalid case %d reported valid", i)
		}
	}
}

func TestProjectConfigFacts(t *testing.T) {
	cfg := &ProjectConfig{
		ProjectName: "demo",
		Database:    DatabaseSQLite,
		ORM:         ORMDrizzle,
		Backend:     BackendHono,
		Frontend:    []Frontend{FrontendReact},
		Auth:        AuthNone,
		Addons:      []Addon{AddonDocs, AddonBiome},
		Git:         true,
	}

	facts := cfg.Facts()
	if facts["database"] != "sqlite" {
		t.Errorf("database = %v, want sqlite", facts["database"])
	}
	fe, ok := facts["frontend"].([]string)
	if !ok || len(fe) != 1 || fe[0] != "react" {
		t.Errorf("frontend = %#v, want [react]", facts["frontend"])
	}
	if facts["git"] != true {
		t.Errorf("git = %v, want true", facts["git"])
	}
	if !cfg.HasAddon(AddonBiome) || cfg.HasAddon(AddonPWA) {
		t.Error("HasAddon mismatch")
	}
	if !cfg.HasFrontend(FrontendReact) || cfg.HasFrontend(FrontendNext) {
		t.Error("HasFrontend mismatch")
	}
}

func TestProjectConfigString(t *testing.T) {
	cfg := &ProjectConfig{Database: DatabaseNone, ORM: ORMNone, Backend: BackendHono, Auth: AuthNone}
	got := cfg.String()
	want := "db=none orm=none backend=hono auth=none"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
