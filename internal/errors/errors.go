// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies an application error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation_error"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeError        ErrorType = "processing_error"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeTimeout      ErrorType = "timeout"
	ErrorTypeStorage      ErrorType = "storage_error"

	// Analysis pipeline
	ErrorTypeInputTooShort     ErrorType = "input_too_short"
	ErrorTypeAnalysisFailure   ErrorType = "analysis_failure"
	ErrorTypeMalformedAnalysis ErrorType = "malformed_stored_analysis"
)

// AppError is the error carried between services and handlers
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
	Code    string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError builds an AppError with the code derived from its type
func NewAppError(errType ErrorType, message string, originalError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     originalError,
		Code:    generateErrorCode(errType),
	}
}

func NewValidationError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeValidation, message, originalError)
}

func NewNotFoundError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeNotFound, message, originalError)
}

func NewProcessingError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeError, message, originalError)
}

func NewUnauthorizedError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeUnauthorized, message, originalError)
}

func NewForbiddenError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeForbidden, message, originalError)
}

func NewConflictError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeConflict, message, originalError)
}

func NewStorageError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeStorage, message, originalError)
}

// NewInputTooShortError reports a dream text below the minimum length
func NewInputTooShortError(message string) *AppError {
	return NewAppError(ErrorTypeInputTooShort, message, nil)
}

// NewAnalysisFailureError reports an unexpected fault inside the pipeline
func NewAnalysisFailureError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeAnalysisFailure, message, originalError)
}

func NewMalformedAnalysisError(message string, originalError error) *AppError {
	return NewAppError(ErrorTypeMalformedAnalysis, message, originalError)
}

// IsType reports whether err is an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type == errType
	}
	return false
}

func IsValidationError(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

func IsNotFoundError(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

func IsUnauthorizedError(err error) bool {
	return IsType(err, ErrorTypeUnauthorized)
}

func IsForbiddenError(err error) bool {
	return IsType(err, ErrorTypeForbidden)
}

func IsConflictError(err error) bool {
	return IsType(err, ErrorTypeConflict)
}

func IsInputTooShort(err error) bool {
	return IsType(err, ErrorTypeInputTooShort)
}

func IsAnalysisFailure(err error) bool {
	return IsType(err, ErrorTypeAnalysisFailure)
}

func IsMalformedAnalysis(err error) bool {
	return IsType(err, ErrorTypeMalformedAnalysis)
}

// TypeOf returns the AppError type of err, or an empty type
func TypeOf(err error) ErrorType {
	var appError *AppError
	if errors.As(err, &appError) {
		return appError.Type
	}
	return ""
}

func generateErrorCode(errType ErrorType) string {
	switch errType {
	case ErrorTypeValidation:
		return "VALIDATION_ERROR"
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypeError:
		return "PROCESSING_ERROR"
	case ErrorTypeUnauthorized:
		return "UNAUTHORIZED"
	case ErrorTypeForbidden:
		return "FORBIDDEN"
	case ErrorTypeConflict:
		return "CONFLICT"
	case ErrorTypeTimeout:
		return "TIMEOUT"
	case ErrorTypeStorage:
		return "STORAGE_ERROR"
	case ErrorTypeInputTooShort:
		return "INPUT_TOO_SHORT"
	case ErrorTypeAnalysisFailure:
		return "ANALYSIS_FAILURE"
	case ErrorTypeMalformedAnalysis:
		return "MALFORMED_ANALYSIS"
	default:
		return "UNKNOWN_ERROR"
	}
}

// WrapError prefixes message onto err, keeping the type of an existing AppError
func WrapError(err error, message string, errType ErrorType) error {
	if err == nil {
		return nil
	}

	var appError *AppError
	if errors.As(err, &appError) {
		return &AppError{
			Type:    appError.Type,
			Message: fmt.Sprintf("%s: %s", message, appError.Message),
			Err:     appError,
			Code:    appError.Code,
		}
	}

	return NewAppError(errType, message, err)
}
