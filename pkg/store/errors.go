package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode identifies a class of record-store failure. The code is the
// machine-readable taxonomy tag outer layers map to status codes; they
// never need to inspect anything beyond it.
type ErrorCode string

const (
	// CodeAuthentication means the credential is invalid or revoked.
	CodeAuthentication ErrorCode = "authentication"

	// CodePermission means the credential lacks access to the resource.
	CodePermission ErrorCode = "permission"

	// CodeNotFound means the referenced record or collection is absent.
	CodeNotFound ErrorCode = "not_found"

	// CodeRateLimited means the store rejected the request for pacing.
	// The error may carry a server-specified retry-after duration.
	CodeRateLimited ErrorCode = "rate_limited"

	// CodeTimeout means an operation exceeded its deadline.
	CodeTimeout ErrorCode = "timeout"

	// CodeConnection means a transport-level connectivity failure.
	CodeConnection ErrorCode = "connection"

	// CodeServer means an upstream 5xx or otherwise unclassifiable fault.
	CodeServer ErrorCode = "server"

	// CodeValidation means caller-supplied input failed shape checks.
	CodeValidation ErrorCode = "validation"

	// CodeConflict means a domain precondition failed, e.g. deciding a
	// request that is no longer pending.
	CodeConflict ErrorCode = "conflict"
)

// Error is the structured error type returned by the record-store client.
// It carries the taxonomy code, a human message, optional structured
// details, and for rate-limit errors an optional server retry-after.
type Error struct {
	Code       ErrorCode
	Message    string
	Details    map[string]interface{}
	RetryAfter time.Duration

	cause error
}

// NewError creates an Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf creates an Error with a formatted message.
func Errorf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetail returns the error with an added structured detail.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithRetryAfter returns the error carrying a server-specified
// retry-after duration.
func (e *Error) WithRetryAfter(d time.Duration) *Error {
	e.RetryAfter = d
	return e
}

// WithCause returns the error wrapping an underlying cause.
func (e *Error) WithCause(cause error) *Error {
	e.cause = cause
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("store: %s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("store: %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is a store Error with the same code,
// making errors.Is usable with code-only probe errors.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// Retryable reports whether an operation that failed with this error may
// be retried. Authentication, permission, not-found, validation and
// conflict failures are final; everything else is transient.
func (e *Error) Retryable() bool {
	switch e.Code {
	case CodeAuthentication, CodePermission, CodeNotFound, CodeValidation, CodeConflict:
		return false
	default:
		return true
	}
}

// Classify returns the taxonomy code for an arbitrary error. Errors
// produced outside the client (transport faults, context deadlines) are
// folded into the closed code set so metrics and retry decisions never
// see an unclassified error.
func Classify(err error) ErrorCode {
	if err == nil {
		return ""
	}

	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	if errors.Is(err, context.Canceled) {
		return CodeTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "connection", "connect", "dial", "broken pipe", "reset by peer"):
		return CodeConnection
	case containsAny(msg, "timeout", "deadline"):
		return CodeTimeout
	default:
		return CodeServer
	}
}

// IsRetryable reports whether an arbitrary error is safe to retry.
// Unknown errors are treated as transient upstream faults.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Retryable()
	}
	switch Classify(err) {
	case CodeAuthentication, CodePermission, CodeNotFound, CodeValidation, CodeConflict:
		return false
	default:
		return true
	}
}

// IsNotFound reports whether the error is a not-found failure.
func IsNotFound(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == CodeNotFound
}

// IsConflict reports whether the error is a domain conflict failure.
func IsConflict(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == CodeConflict
}

// IsValidation reports whether the error is a validation failure.
func IsValidation(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == CodeValidation
}

// IsRateLimited reports whether the error is a rate-limit rejection.
func IsRateLimited(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Code == CodeRateLimited
}

// RetryAfter returns the server-specified retry-after carried by the
// error, or 0 if none.
func RetryAfter(err error) time.Duration {
	var se *Error
	if errors.As(err, &se) {
		return se.RetryAfter
	}
	return 0
}

func containsAny(s string, substrs ...string) bool {
	for _, substr := range substrs {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
