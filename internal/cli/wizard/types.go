// Package wizard asks for the stack options that were not given on the
// command line, one huh form per question.
package wizard

import (
	"errors"

	"github.com/stackgen/stackgen/pkg/models"
)

// QuestionType selects the huh field used for a question. Answers always
// travel as strings; confirm answers are "true" or "false".
type QuestionType int

const (
	QuestionTypeSelect QuestionType = iota
	QuestionTypeMultiSelect
	QuestionTypeInput
	QuestionTypeConfirm
)

// Question defines a single wizard question. Its ID names the
// ProjectConfig field the answer is written to.
type Question struct {
	ID          string
	Type        QuestionType
	Title       string
	Description string
	Options     []Option
	Validate    func(string) error // input questions only

	// Condition hides the question unless it returns true for the answers
	// collected so far.
	Condition func(*models.ProjectConfig) bool
}

// Option is shown as "Label - Desc" and answers Value.
type Option struct {
	Label string
	Value string
	Desc  string
}

// Question IDs, as passed to Without.
const (
	IDProjectName    = "project_name"
	IDDatabase       = "database"
	IDORM            = "orm"
	IDBackend        = "backend"
	IDFrontend       = "frontend"
	IDAuth           = "auth"
	IDAddons         = "addons"
	IDPackageManager = "package_manager"
	IDGit            = "git"
	IDInstall        = "install"
)

var (
	// ErrCancelled is returned when the user aborts a form with ctrl+c.
	ErrCancelled   = errors.New("wizard: cancelled")
	ErrNoQuestions = errors.New("wizard: no questions")
)
