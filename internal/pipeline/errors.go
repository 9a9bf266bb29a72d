package pipeline

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the pipeline package.
var (
	// ErrInvalidStage indicates a stage without a name or action.
	ErrInvalidStage = errors.New("pipeline: invalid stage")

	// ErrDuplicateStage indicates a stage name is already in use.
	ErrDuplicateStage = errors.New("pipeline: duplicate stage name")

	// ErrStageTimeout indicates a stage attempt did not settle within its timeout.
	ErrStageTimeout = errors.New("pipeline: stage timed out")

	// ErrStagePanic indicates a stage action panicked.
	ErrStagePanic = errors.New("pipeline: stage panicked")
)

// TimeoutError reports a stage attempt that lost the race against its
// deadline.
type TimeoutError struct {
	Stage   string
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("stage %q timed out after %s", e.Stage, e.Timeout)
}

// Is matches ErrStageTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrStageTimeout
}

// StageError attributes a failure to the stage that produced it.
type StageError struct {
	Stage    string
	Required bool
	Err      error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	if e.Required {
		return fmt.Sprintf("required stage %q failed: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("stage %q failed: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying failure.
func (e *StageError) Unwrap() error {
	return e.Err
}
