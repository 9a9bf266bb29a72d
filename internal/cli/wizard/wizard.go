package wizard

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/stackgen/stackgen/pkg/models"
)

// Run asks each question and writes the answers into cfg. Values already in
// cfg are offered as defaults.
//
// Each question runs as its own independent huh.Form to avoid the huh v0.8.x
// YOffset scroll bug that occurs when multiple groups share a single viewport.
func Run(ctx context.Context, questions []Question, cfg *models.ProjectConfig) error {
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	theme := newWizardTheme()
	for _, q := range questions {
		if err := ctx.Err(); err != nil {
			return err
		}
		if q.Condition != nil && !q.Condition(cfg) {
			continue
		}

		field, collect := buildField(q, current(cfg, q.ID))
		form := huh.NewForm(huh.NewGroup(field)).
			WithTheme(theme).
			WithAccessible(false)

		if err := form.RunWithContext(ctx); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return ErrCancelled
			}
			return fmt.Errorf("wizard error: %w", err)
		}
		apply(cfg, q.ID, collect())
	}
	return nil
}

// buildField creates the huh field for q, seeded with the current value,
// and a function that reads the answer once the form completes.
func buildField(q Question, value []string) (huh.Field, func() []string) {
	first := ""
	if len(value) > 0 {
		first = value[0]
	}

	switch q.Type {
	case QuestionTypeMultiSelect:
		selected := value
		field := huh.NewMultiSelect[string]().
			Title(q.Title).
			Description(q.Description).
			Options(options(q.Options)...).
			Value(&selected)
		return field, func() []string { return selected }

	case QuestionTypeInput:
		answer := first
		field := huh.NewInput().
			Title(q.Title).
			Description(q.Description).
			Value(&answer)
		if q.Validate != nil {
			field = field.Validate(q.Validate)
		}
		return field, func() []string { return []string{answer} }

	case QuestionTypeConfirm:
		answer := first == "true"
		field := huh.NewConfirm().
			Title(q.Title).
			Description(q.Description).
			Value(&answer)
		return field, func() []string {
			if answer {
				return []string{"true"}
			}
			return []string{"false"}
		}

	default:
		answer := first
		if answer == "" && len(q.Options) > 0 {
			answer = q.Options[0].Value
		}
		field := huh.NewSelect[string]().
			Title(q.Title).
			Description(q.Description).
			Options(options(q.Options)...).
			Value(&answer)
		return field, func() []string { return []string{answer} }
	}
}

func options(opts []Option) []huh.Option[string] {
	out := make([]huh.Option[string], len(opts))
	for i, o := range opts {
		key := o.Label
		if o.Desc != "" {
			key += " - " + o.Desc
		}
		out[i] = huh.NewOption(key, o.Value)
	}
	return out
}

// newWizardTheme creates a huh.Theme in the stackgen palette.
func newWizardTheme() *huh.Theme {
	t := huh.ThemeBase()

	primary := lipgloss.AdaptiveColor{Light: "#6D28D9", Dark: "#A78BFA"}
	green := lipgloss.AdaptiveColor{Light: "#059669", Dark: "#10B981"}
	red := lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#EF4444"}
	muted := lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6B7280"}

	t.Focused.Title = t.Focused.Title.Foreground(primary).Bold(true)
	t.Focused.Description = t.Focused.Description.Foreground(muted)
	t.Focused.ErrorIndicator = t.Focused.ErrorIndicator.Foreground(red)
	t.Focused.ErrorMessage = t.Focused.ErrorMessage.Foreground(red)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(primary).SetString("▸ ")
	t.Focused.MultiSelectSelector = t.Focused.MultiSelectSelector.Foreground(primary)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(green)
	t.Focused.SelectedPrefix = lipgloss.NewStyle().Foreground(green).SetString("◆ ")
	t.Focused.UnselectedPrefix = lipgloss.NewStyle().Foreground(muted).SetString("◇ ")
	t.Focused.FocusedButton = t.Focused.FocusedButton.Foreground(lipgloss.Color("#FFFFFF")).Background(primary)

	t.Blurred = t.Focused
	t.Blurred.Base = t.Focused.Base.BorderStyle(lipgloss.HiddenBorder())
	t.Group.Title = t.Focused.Title
	t.Group.Description = t.Focused.Description
	return t
}
