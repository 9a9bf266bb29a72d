package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/stackgen/stackgen/pkg/models"
)

func TestDefaultQuestionsCoverEveryField(t *testing.T) {
	var ids []string
	for _, q := range DefaultQuestions() {
		ids = append(ids, q.ID)
	}
	want := []string{
		IDProjectName, IDDatabase, IDORM, IDBackend, IDFrontend,
		IDAuth, IDAddons, IDPackageManager, IDGit, IDInstall,
	}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("question IDs mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectOptionsAreValid(t *testing.T) {
	valid := map[string]func(string) bool{
		IDDatabase:       func(v string) bool { return models.Database(v).IsValid() },
		IDORM:            func(v string) bool { return models.ORM(v).IsValid() },
		IDBackend:        func(v string) bool { return models.Backend(v).IsValid() },
		IDFrontend:       func(v string) bool { return models.Frontend(v).IsValid() },
		IDAuth:           func(v string) bool { return models.Auth(v).IsValid() },
		IDAddons:         func(v string) bool { return models.Addon(v).IsValid() },
		IDPackageManager: func(v string) bool { return models.PackageManager(v).IsValid() },
	}
	for _, q := range DefaultQuestions() {
		check, ok := valid[q.ID]
		if !ok {
			continue
		}
		for _, o := range q.Options {
			if !check(o.Value) {
				t.Errorf("%s: option %q is not a valid value", q.ID, o.Value)
			}
		}
	}
}

func TestWithout(t *testing.T) {
	qs := Without(DefaultQuestions(), IDProjectName, IDGit)
	for _, q := range qs {
		if q.ID == IDProjectName || q.ID == IDGit {
			t.Errorf("question %s not removed", q.ID)
		}
	}
	if len(qs) != len(DefaultQuestions())-2 {
		t.Errorf("len = %d", len(qs))
	}
}

func TestApplyRoundTrip(t *testing.T) {
	src := &models.ProjectConfig{
		ProjectName:    "demo",
		Database:       models.DatabaseMySQL,
		ORM:            models.ORMPrisma,
		Backend:        models.BackendExpress,
		Frontend:       []models.Frontend{models.FrontendSvelte, models.FrontendSolid},
		Auth:           models.AuthBetterAuth,
		Addons:         []models.Addon{models.AddonPWA},
		PackageManager: models.PackageManagerBun,
		Git:            true,
	}
	dst := &models.ProjectConfig{}
	for _, q := range DefaultQuestions() {
		apply(dst, q.ID, current(src, q.ID))
	}
	if diff := cmp.Diff(src, dst); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyDatabaseNoneClearsORM(t *testing.T) {
	cfg := &models.ProjectConfig{ORM: models.ORMDrizzle}
	apply(cfg, IDDatabase, []string{"none"})
	if cfg.ORM != models.ORMNone {
		t.Errorf("ORM = %q, want none", cfg.ORM)
	}

	var orm Question
	for _, q := range DefaultQuestions() {
		if q.ID == IDORM {
			orm = q
		}
	}
	if orm.Condition(cfg) {
		t.Error("ORM question should be hidden without a database")
	}
}

func TestBuildFieldCollectsDefaults(t *testing.T) {
	for _, q := range DefaultQuestions() {
		field, collect := buildField(q, nil)
		if field == nil {
			t.Fatalf("%s: nil field", q.ID)
		}
		got := collect()
		switch q.Type {
		case QuestionTypeSelect:
			if len(got) != 1 || got[0] != q.Options[0].Value {
				t.Errorf("%s: default = %v, want first option", q.ID, got)
			}
		case QuestionTypeConfirm:
			if len(got) != 1 || got[0] != "false" {
				t.Errorf("%s: default = %v", q.ID, got)
			}
		}
	}
}

func TestRunErrors(t *testing.T) {
	if err := Run(context.Background(), nil, &models.ProjectConfig{}); !errors.Is(err, ErrNoQuestions) {
		t.Errorf("err = %v, want ErrNoQuestions", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Run(ctx, DefaultQuestions(), &models.ProjectConfig{}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
