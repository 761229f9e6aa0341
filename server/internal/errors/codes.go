package errors

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// ErrorCode represents a specific error type for availability operations.
type ErrorCode string

const (
	// ErrCodeInvalidTimeString indicates a clock string that could not be parsed.
	ErrCodeInvalidTimeString ErrorCode = "INVALID_TIME_STRING"
	// ErrCodeMalformedAvailability indicates a serialized availability that could not be decoded.
	ErrCodeMalformedAvailability ErrorCode = "MALFORMED_SERIALIZED_AVAILABILITY"
	// ErrCodeInvalidTimezone indicates an unknown IANA timezone name.
	ErrCodeInvalidTimezone ErrorCode = "INVALID_TIMEZONE"
	// ErrCodeInvalidDate indicates a date key that could not be parsed.
	ErrCodeInvalidDate ErrorCode = "INVALID_DATE"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

// AvailabilityError is a structured error carrying a code and optional cause.
type AvailabilityError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *AvailabilityError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AvailabilityError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *AvailabilityError) WithContext(key string, value any) *AvailabilityError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// InvalidTimeString creates an error for an unparseable clock string.
func InvalidTimeString(s string, cause error) *AvailabilityError {
	return (&AvailabilityError{
		Code:    ErrCodeInvalidTimeString,
		Message: fmt.Sprintf("invalid time string %q", s),
		Cause:   cause,
	}).WithContext("input", s)
}

// MalformedAvailability creates an error for undecodable serialized availability.
func MalformedAvailability(cause error) *AvailabilityError {
	return &AvailabilityError{Code: ErrCodeMalformedAvailability, Message: "malformed serialized availability", Cause: cause}
}

// InvalidTimezone creates an error for an unknown timezone name.
func InvalidTimezone(name string, cause error) *AvailabilityError {
	return (&AvailabilityError{
		Code:    ErrCodeInvalidTimezone,
		Message: fmt.Sprintf("invalid timezone %q", name),
		Cause:   cause,
	}).WithContext("timezone", name)
}

// InvalidDate creates an error for an unparseable date key.
func InvalidDate(s string) *AvailabilityError {
	return (&AvailabilityError{
		Code:    ErrCodeInvalidDate,
		Message: fmt.Sprintf("invalid date %q", s),
	}).WithContext("input", s)
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *AvailabilityError {
	return &AvailabilityError{Code: ErrCodeInvalidArgument, Message: msg}
}

// Wrap wraps an existing error with a code and message.
func Wrap(cause error, code ErrorCode, msg string) *AvailabilityError {
	return &AvailabilityError{Code: code, Message: msg, Cause: cause}
}

// IsCode reports whether any error in err's chain carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var availErr *AvailabilityError
	if pkgerrors.As(err, &availErr) {
		return availErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if no AvailabilityError is in the chain.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var availErr *AvailabilityError
	if pkgerrors.As(err, &availErr) {
		return availErr.Code
	}
	return defaultCode
}
