package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

const (
	// Connection lifecycle
	ErrCodeConnection       ErrorCode = "CONNECTION_ERROR"
	ErrCodePairingExpired   ErrorCode = "PAIRING_EXPIRED"
	ErrCodeNotConnected     ErrorCode = "NOT_CONNECTED"
	ErrCodeAlreadyConnected ErrorCode = "ALREADY_CONNECTED"

	// Inbound gating
	ErrCodeRateLimited   ErrorCode = "RATE_LIMITED"
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"

	// Conversation
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeCollaborator ErrorCode = "COLLABORATOR_ERROR"

	// Transport
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// AppError is a structured error that can be returned to callers
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, cause: cause}
}

// Common error constructors

func Connection(message string, cause error) *AppError {
	return Wrap(ErrCodeConnection, message, cause)
}

func PairingExpired() *AppError {
	return New(ErrCodePairingExpired, "Pairing material has expired")
}

func NotConnected(tenantID string) *AppError {
	return New(ErrCodeNotConnected, fmt.Sprintf("Tenant %s is not connected", tenantID))
}

func AlreadyConnected(tenantID string) *AppError {
	return New(ErrCodeAlreadyConnected, fmt.Sprintf("Tenant %s already has an active session", tenantID))
}

func RateLimited(waitSeconds int) *AppError {
	return New(ErrCodeRateLimited, fmt.Sprintf("Rate limited, retry in %ds", waitSeconds))
}

func Configuration(message string) *AppError {
	return New(ErrCodeConfiguration, message)
}

func ValidationError(message string) *AppError {
	return New(ErrCodeValidation, message)
}

func Collaborator(operation string, cause error) *AppError {
	return Wrap(ErrCodeCollaborator, fmt.Sprintf("Collaborator call failed: %s", operation), cause)
}

func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message)
}

func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetCode returns the error code if the error is an AppError, otherwise ErrCodeInternal
func GetCode(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}
