package errors

import (
	stderrors "errors"
	"fmt"
)

// APIError is the error type shared by the services and the HTTP layer.
// Services return it directly; handlers write it with util.RespondWithAPIError.
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Details string    `json:"details,omitempty"`
	Status  int       `json:"-"`

	cause error
}

// Error implements the error interface
func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Field != "" {
		msg = fmt.Sprintf("%s (field: %s)", msg, e.Field)
	}
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Unwrap exposes the underlying cause to errors.Is / errors.As
func (e *APIError) Unwrap() error {
	return e.cause
}

// Is matches any APIError carrying the same code, so callers can write
// errors.Is(err, errors.NotFound("")) style checks via the sentinels below.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause attaches the underlying error
func (e *APIError) WithCause(err error) *APIError {
	e.cause = err
	return e
}

// WithDetails adds additional details to an error
func (e *APIError) WithDetails(details string) *APIError {
	e.Details = details
	return e
}

func newError(code ErrorCode, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Status:  code.StatusCode(),
	}
}

// Sentinels for errors.Is checks. Compared by code only.
var (
	ErrAuthRequired = newError(ErrAuthenticationRequired, "")
	ErrValidation   = newError(ErrValidationFailed, "")
	ErrMissing      = newError(ErrNotFound, "")
	ErrStorage      = newError(ErrStorageFailure, "")
)

// AuthenticationRequired creates an AUTHENTICATION_REQUIRED error
func AuthenticationRequired(message string) *APIError {
	if message == "" {
		message = "authentication required"
	}
	return newError(ErrAuthenticationRequired, message)
}

// ValidationFailed creates a VALIDATION_FAILED error
func ValidationFailed(field, message string) *APIError {
	e := newError(ErrValidationFailed, message)
	e.Field = field
	return e
}

// NotFound creates a NOT_FOUND error
func NotFound(resource string) *APIError {
	return newError(ErrNotFound, fmt.Sprintf("%s not found", resource))
}

// StorageFailure creates a STORAGE_FAILURE error. The cause is logged, never returned to clients.
func StorageFailure(operation string, cause error) *APIError {
	return newError(ErrStorageFailure, fmt.Sprintf("failed to %s", operation)).WithCause(cause)
}

// ExternalServiceFailure wraps an intelligence-service error. Absorbed by the caller.
func ExternalServiceFailure(service string, cause error) *APIError {
	return newError(ErrExternalServiceFailure, fmt.Sprintf("%s call failed", service)).WithCause(cause)
}

// ConflictRace wraps a duplicate-key condition on a unique relation. Resolved by the caller.
func ConflictRace(resource string, cause error) *APIError {
	return newError(ErrConflictRace, fmt.Sprintf("%s created concurrently", resource)).WithCause(cause)
}

// BadRequest creates a BAD_REQUEST error
func BadRequest(message string) *APIError {
	return newError(ErrBadRequest, message)
}

// InternalError creates an INTERNAL_ERROR
func InternalError(message string) *APIError {
	return newError(ErrInternalError, message)
}

// From converts any error into an APIError. Unknown errors become INTERNAL_ERROR
// with the original error kept as the cause.
func From(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}
	return InternalError("internal server error").WithCause(err)
}
