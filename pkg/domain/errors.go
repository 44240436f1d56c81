package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

var (
	// ErrBackendFailure marks transport or model errors from the generative backend.
	ErrBackendFailure = errors.New("backend failure")

	// ErrParseFailure marks a backend response that did not match the stage schema.
	ErrParseFailure = errors.New("parse failure")

	// ErrUserAbort is returned when the decision source selects quit.
	ErrUserAbort = errors.New("user abort")

	// ErrInvalidDecision is returned by the normalizer for unrecognised tokens.
	ErrInvalidDecision = errors.New("invalid decision token")

	// ErrStageOrder is returned when a stage is started or advanced out of sequence.
	ErrStageOrder = errors.New("stage out of order")

	// ErrSessionClosed is returned when mutating a session whose outcome is set.
	ErrSessionClosed = errors.New("session closed")

	// ErrValidation indicates invalid parameters or payloads.
	ErrValidation = errors.New("validation error")

	// ErrNoInput is returned when a run has no document to process.
	ErrNoInput = errors.New("no input to process")
)

// Failure messages carried by StageError and rendered into LogRow descriptors.
const (
	MessageParseError     = "parse_error"
	MessageUserAbort      = "user_abort"
	MessageBackendFailure = "backend_failure"
)

// StageError is a session-level failure attributed to one stage.
type StageError struct {
	Stage   StageName
	Message string
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage=%s message=%s", e.Stage, e.Message)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError classifies err into the failure message used in audit rows.
func NewStageError(stage StageName, err error) *StageError {
	var se *StageError
	if errors.As(err, &se) {
		return se
	}
	msg := err.Error()
	switch {
	case errors.Is(err, ErrUserAbort):
		msg = MessageUserAbort
	case errors.Is(err, ErrParseFailure):
		msg = MessageParseError
	case errors.Is(err, ErrBackendFailure):
		cause := strings.TrimPrefix(msg, ErrBackendFailure.Error())
		msg = MessageBackendFailure + ": " + strings.TrimLeft(cause, ": ")
	}
	return &StageError{Stage: stage, Message: msg, Err: err}
}
