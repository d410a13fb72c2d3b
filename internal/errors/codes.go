package errors

import "net/http"

// ErrorCode represents the type of error
type ErrorCode string

const (
	ErrAuthenticationRequired ErrorCode = "AUTHENTICATION_REQUIRED"
	ErrValidationFailed       ErrorCode = "VALIDATION_FAILED"
	ErrNotFound               ErrorCode = "NOT_FOUND"
	ErrStorageFailure         ErrorCode = "STORAGE_FAILURE"
	ErrBadRequest             ErrorCode = "BAD_REQUEST"
	ErrInternalError          ErrorCode = "INTERNAL_ERROR"

	// Absorbed internally, never written to a response.
	ErrExternalServiceFailure ErrorCode = "EXTERNAL_SERVICE_FAILURE"
	ErrConflictRace           ErrorCode = "CONFLICT_RACE"
)

// StatusCodeMap maps ErrorCode to HTTP status code
var StatusCodeMap = map[ErrorCode]int{
	ErrAuthenticationRequired: http.StatusUnauthorized,
	ErrValidationFailed:       http.StatusBadRequest,
	ErrNotFound:               http.StatusNotFound,
	ErrStorageFailure:         http.StatusInternalServerError,
	ErrBadRequest:             http.StatusBadRequest,
	ErrInternalError:          http.StatusInternalServerError,
	ErrExternalServiceFailure: http.StatusBadGateway,
	ErrConflictRace:           http.StatusConflict,
}

// StatusCode returns the HTTP status code for this error code
func (e ErrorCode) StatusCode() int {
	if code, ok := StatusCodeMap[e]; ok {
		return code
	}
	return http.StatusInternalServerError
}
