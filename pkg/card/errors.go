package card

import (
	"errors"
	"fmt"
)

// Error codes carried on error cards
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeUnexpected       = "UNEXPECTED"
	CodeUnhandled        = "UNHANDLED_EXCEPTION"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeUnknownTool      = "UNKNOWN_TOOL"
	CodeCompletionFailed = "LLM_COMPLETION_FAILED"
	CodeTurnFailed       = "TURN_PROCESSING_FAILED"
	CodeStateConflict    = "STATE_CONFLICT"
	CodeToolFailed       = "TOOL_FAILED"
)

// ErrorKind is the error taxonomy of the turn pipeline
type ErrorKind string

const (
	KindValidation      ErrorKind = "validation"
	KindUpstreamTimeout ErrorKind = "upstream_timeout"
	KindUpstreamFailure ErrorKind = "upstream_failure"
	KindStateConflict   ErrorKind = "state_conflict"
	KindUnhandled       ErrorKind = "unhandled"
)

// Error is a classified pipeline error
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports malformed envelope or args
func Validation(message string) error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: message}
}

// Conflict reports an unmet armed precondition
func Conflict(message string) error {
	return &Error{Kind: KindStateConflict, Code: CodeStateConflict, Message: message}
}

// Unhandled wraps an unexpected fault, e.g. a recovered panic
func Unhandled(message string, err error) error {
	return &Error{Kind: KindUnhandled, Code: CodeUnhandled, Message: message, Err: err}
}

// KindOf classifies any error; unknown errors are unhandled
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnhandled
}

// FromError converts a tool error into the user-visible Card.
// Validation errors surface their message, state conflicts become an informational
// card, everything else is the generic "action failed" card.
func FromError(tool string, err error) Card {
	var ce *Error
	if !errors.As(err, &ce) {
		return Fail(tool, "Action Failed", "An unexpected error occurred. Please try again.", CodeUnexpected)
	}
	switch ce.Kind {
	case KindValidation:
		return Fail(tool, "Validation Error", ce.Message, CodeValidation)
	case KindStateConflict:
		return OK(tool, "One More Step", ce.Message, map[string]interface{}{"kind": KindInfo, "conflict": true})
	default:
		code := ce.Code
		if code == "" {
			code = CodeToolFailed
		}
		return Fail(tool, "Action Failed", "Something went wrong. Please try again.", code)
	}
}
