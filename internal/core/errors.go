package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Bar stream errors
	ErrOrderingViolation = &Error{Code: "ORDERING_VIOLATION", Message: "bar timestamp not after last seen bar"}
	ErrBadBar            = &Error{Code: "BAD_BAR", Message: "malformed bar"}
	ErrNoData            = &Error{Code: "NO_DATA", Message: "no data available"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// Feed errors
	ErrFeedFailed = &Error{Code: "FEED_FAILED", Message: "data feed request failed"}
	ErrFeedAuth   = &Error{Code: "FEED_AUTH", Message: "data feed authentication failed"}

	// Executor errors
	ErrExecRejected = &Error{Code: "EXEC_REJECTED", Message: "order instruction rejected"}

	// Review errors
	ErrReviewFailed = &Error{Code: "REVIEW_FAILED", Message: "session review failed"}
)
