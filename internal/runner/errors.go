package runner

import (
	"errors"
	"fmt"
)

// ErrUnknownStep signals a step type with no registered handler. Definitions
// are validated at creation, so hitting this at run time is a logic fault,
// not a user error.
var ErrUnknownStep = errors.New("no handler registered for step type")

// StepError identifies the step that aborted a run.
type StepError struct {
	StepID string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.StepID, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
