package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode string

// Error codes used across the user and role packages
const (
	// Generic errors
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeUnavailable     ErrorCode = "UNAVAILABLE"

	// User errors
	ErrCodeUserNotFound    ErrorCode = "USER_NOT_FOUND"
	ErrCodeUserUnavailable ErrorCode = "USER_UNAVAILABLE"

	// Role errors
	ErrCodeRoleNotFound      ErrorCode = "ROLE_NOT_FOUND"
	ErrCodeInvalidRole       ErrorCode = "INVALID_ROLE"
	ErrCodeInvalidCapability ErrorCode = "INVALID_CAPABILITY"
)

// Error represents a structured error with code, message, and optional details
type Error struct {
	Code    ErrorCode              // Unique error code
	Message string                 // Human-readable error message
	Details map[string]interface{} // Optional additional details
	Err     error                  // Wrapped underlying error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *Error) HTTPStatusCode() int {
	return MapErrorCodeToHTTPStatus(e.Code)
}

// New creates a new Error with the given code and message
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with code and message
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrapf wraps an existing error with code and formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// IsCode checks if an error has a specific error code
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
// Returns ErrCodeInternal if the error is not a structured Error
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// IsInvalidArgument reports whether err carries one of the invalid-argument codes
func IsInvalidArgument(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidArgument, ErrCodeInvalidRole, ErrCodeInvalidCapability, ErrCodeUserUnavailable:
		return true
	}
	return false
}

// IsNotFound reports whether err carries one of the not-found codes
func IsNotFound(err error) bool {
	switch GetCode(err) {
	case ErrCodeNotFound, ErrCodeUserNotFound, ErrCodeRoleNotFound:
		return true
	}
	return false
}

// MapErrorCodeToHTTPStatus maps error codes to HTTP status codes
func MapErrorCodeToHTTPStatus(code ErrorCode) int {
	switch code {
	// 400 Bad Request
	case ErrCodeInvalidArgument, ErrCodeInvalidRole, ErrCodeInvalidCapability:
		return http.StatusBadRequest

	// 404 Not Found
	case ErrCodeNotFound, ErrCodeUserNotFound, ErrCodeRoleNotFound, ErrCodeUserUnavailable:
		return http.StatusNotFound

	// 503 Service Unavailable
	case ErrCodeUnavailable:
		return http.StatusServiceUnavailable

	// 500 Internal Server Error (default)
	case ErrCodeInternal:
		fallthrough
	default:
		return http.StatusInternalServerError
	}
}

// Common error constructors for frequently used errors

// NotFound creates a "not found" error
func NotFound(resourceType, identifier string) *Error {
	return Newf(ErrCodeNotFound, "%s not found: %s", resourceType, identifier)
}

// InvalidArgument creates an "invalid argument" error
func InvalidArgument(message string) *Error {
	return New(ErrCodeInvalidArgument, message)
}

// Unavailable creates a "runtime unavailable" error
func Unavailable(message string) *Error {
	return New(ErrCodeUnavailable, message)
}

// InternalWrap wraps an internal error
func InternalWrap(err error, message string) *Error {
	return Wrap(err, ErrCodeInternal, message)
}

// Body is the JSON shape of an error response
type Body struct {
	Error   string                 `json:"error"`
	Code    ErrorCode              `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ToBody converts err into an HTTP status and response body.
// Errors without a code are reported as internal errors without their text.
func ToBody(err error) (int, Body) {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError, Body{
			Error: http.StatusText(http.StatusInternalServerError),
			Code:  ErrCodeInternal,
		}
	}
	return e.HTTPStatusCode(), Body{
		Error:   e.Message,
		Code:    e.Code,
		Details: e.Details,
	}
}
