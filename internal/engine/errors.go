package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/timeline/internal/action"
)

// ActionError is a structured failure from the executor.
//
// Failures are returned inside a Result, never panicked or thrown across the
// public boundary. Code identifies the category; Message is what a user sees.
type ActionError struct {
	Code       ErrorCode
	Message    string
	ActionID   string
	ActionType action.Type
	Err        error
}

// ErrorCode categorizes executor failures.
type ErrorCode string

const (
	// ErrCodeValidation is an unknown action type or malformed payload.
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodeMutationFailed means the entity store rejected the mutation.
	// The action was not recorded.
	ErrCodeMutationFailed ErrorCode = "MUTATION_FAILED"

	// ErrCodeNothingToUndo means the undo stack is empty.
	ErrCodeNothingToUndo ErrorCode = "NOTHING_TO_UNDO"

	// ErrCodeNothingToRedo means the redo stack is empty.
	ErrCodeNothingToRedo ErrorCode = "NOTHING_TO_REDO"

	// ErrCodeNotUndoable means the top entry had no previous state.
	ErrCodeNotUndoable ErrorCode = "NOT_UNDOABLE"

	// ErrCodeRestoreFailed means a snapshot could not be restored.
	ErrCodeRestoreFailed ErrorCode = "RESTORE_FAILED"

	// ErrCodeStopped means the executor is no longer accepting work.
	ErrCodeStopped ErrorCode = "EXECUTOR_STOPPED"
)

// Error implements the error interface.
func (e *ActionError) Error() string {
	if e.ActionType != "" {
		return fmt.Sprintf("%s: %s (action=%s)", e.Code, e.Message, e.ActionType)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying store error, if any.
func (e *ActionError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is an ActionError with ErrCodeValidation.
func IsValidationError(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

// IsMutationError reports whether err is an ActionError with ErrCodeMutationFailed.
func IsMutationError(err error) bool {
	return hasCode(err, ErrCodeMutationFailed)
}

// IsStoppedError reports whether err came from a stopped executor.
func IsStoppedError(err error) bool {
	return hasCode(err, ErrCodeStopped)
}

func hasCode(err error, code ErrorCode) bool {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae.Code == code
	}
	return false
}

func newValidationError(a action.Action, err error) *ActionError {
	return &ActionError{
		Code:       ErrCodeValidation,
		Message:    "Unknown action type",
		ActionID:   a.ID,
		ActionType: a.Type,
		Err:        err,
	}
}

func newMutationError(a action.Action, err error) *ActionError {
	return &ActionError{
		Code:       ErrCodeMutationFailed,
		Message:    err.Error(),
		ActionID:   a.ID,
		ActionType: a.Type,
		Err:        err,
	}
}

var errStopped = &ActionError{Code: ErrCodeStopped, Message: "executor stopped"}
