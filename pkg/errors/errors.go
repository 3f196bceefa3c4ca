package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeConflict indicates a conflict with existing data
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeTransient indicates a retryable transaction abort
	// (serialization failure or deadlock reported by the database)
	ErrorTypeTransient ErrorType = "TRANSIENT"

	// ErrorTypeTimeout indicates a transaction exceeded its execution timeout
	ErrorTypeTimeout ErrorType = "TIMEOUT"

	// ErrorTypeInvalidRange indicates an invalid date range was requested
	ErrorTypeInvalidRange ErrorType = "INVALID_RANGE"

	// ErrorTypeUnknownService indicates the referenced service does not exist
	ErrorTypeUnknownService ErrorType = "UNKNOWN_SERVICE"

	// ErrorTypeUnknownLocation indicates the referenced location does not exist
	ErrorTypeUnknownLocation ErrorType = "UNKNOWN_LOCATION"

	// ErrorTypeSlotInactive indicates the slot has been deactivated
	ErrorTypeSlotInactive ErrorType = "SLOT_INACTIVE"

	// ErrorTypeSlotInPast indicates the slot start time has already passed
	ErrorTypeSlotInPast ErrorType = "SLOT_IN_PAST"

	// ErrorTypeSlotFull indicates the slot has no remaining capacity
	ErrorTypeSlotFull ErrorType = "SLOT_FULL"

	// ErrorTypeScheduleConflict indicates the patient already holds an
	// overlapping booking
	ErrorTypeScheduleConflict ErrorType = "SCHEDULE_CONFLICT"

	// ErrorTypeAlreadyCancelled indicates the booking is in a terminal state
	ErrorTypeAlreadyCancelled ErrorType = "ALREADY_CANCELLED"

	// ErrorTypeBookingInPast indicates the booking's slot has already started
	ErrorTypeBookingInPast ErrorType = "BOOKING_IN_PAST"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// TypeOf returns the error type of err, or ErrorTypeInternal if err is not
// an AppError
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// IsType reports whether err is an AppError of the given type
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}

// IsTransient reports whether err is a retryable transaction abort
func IsTransient(err error) bool {
	return IsType(err, ErrorTypeTransient)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewTransientError creates a new retryable transaction abort error
func NewTransientError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeTransient,
		Message: message,
		Err:     err,
	}
}

// NewTimeoutError creates a new transaction timeout error
func NewTimeoutError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeTimeout,
		Message: message,
		Err:     err,
	}
}

// NewSchedulingError creates a new error of a scheduling-specific type
func NewSchedulingError(t ErrorType, message string) *AppError {
	return &AppError{
		Type:    t,
		Message: message,
	}
}
