// internal/api/error_codes.go
package api

import (
	"net/http"

	apperrors "github.com/akashia/dreambank/internal/errors"
)

// API error codes
const (
	// generic
	ErrorBadRequest        = "BAD_REQUEST"
	ErrorNotFound          = "NOT_FOUND"
	ErrorInternalError     = "INTERNAL_ERROR"
	ErrorConflict          = "CONFLICT"
	ErrorForbidden         = "FORBIDDEN"
	ErrorUnauthorized      = "UNAUTHORIZED"
	ErrorRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrorTimeout           = "TIMEOUT"

	// submissions
	ErrorValidation        = "VALIDATION_ERROR"
	ErrorSubmissionMissing = "SUBMISSION_NOT_FOUND"
	ErrorStorage           = "STORAGE_ERROR"

	// analysis
	ErrorInputTooShort     = "INPUT_TOO_SHORT"
	ErrorAnalysisFailure   = "ANALYSIS_FAILURE"
	ErrorMalformedAnalysis = "MALFORMED_ANALYSIS"

	// export
	ErrorExportFailed        = "EXPORT_FAILED"
	ErrorExportFormatInvalid = "EXPORT_FORMAT_INVALID"
)

// statusFor maps an error to its HTTP status and API code. Errors that are
// not AppErrors are internal.
func statusFor(err error) (int, string) {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest, ErrorValidation
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound, ErrorNotFound
	case apperrors.ErrorTypeInputTooShort:
		return http.StatusUnprocessableEntity, ErrorInputTooShort
	case apperrors.ErrorTypeAnalysisFailure:
		return http.StatusInternalServerError, ErrorAnalysisFailure
	case apperrors.ErrorTypeMalformedAnalysis:
		return http.StatusInternalServerError, ErrorMalformedAnalysis
	case apperrors.ErrorTypeUnauthorized:
		return http.StatusUnauthorized, ErrorUnauthorized
	case apperrors.ErrorTypeForbidden:
		return http.StatusForbidden, ErrorForbidden
	case apperrors.ErrorTypeConflict:
		return http.StatusConflict, ErrorConflict
	case apperrors.ErrorTypeTimeout:
		return http.StatusServiceUnavailable, ErrorTimeout
	case apperrors.ErrorTypeStorage:
		return http.StatusInternalServerError, ErrorStorage
	default:
		return http.StatusInternalServerError, ErrorInternalError
	}
}
