// internal/api/response_helpers.go
package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/akashia/dreambank/internal/errors"
	"github.com/akashia/dreambank/internal/utils"
)

// APIResponse is the envelope of every JSON response
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIError is the error part of the envelope
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ResponseHelper writes envelopes
type ResponseHelper struct {
	logger *utils.Logger
}

func NewResponseHelper() *ResponseHelper {
	return &ResponseHelper{logger: utils.GetLogger()}
}

func (rh *ResponseHelper) Success(c *gin.Context, data interface{}, message ...string) {
	rh.write(c, http.StatusOK, data, message)
}

func (rh *ResponseHelper) Created(c *gin.Context, data interface{}, message ...string) {
	rh.write(c, http.StatusCreated, data, message)
}

func (rh *ResponseHelper) write(c *gin.Context, status int, data interface{}, message []string) {
	response := &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	}
	if len(message) > 0 {
		response.Message = message[0]
	}
	c.JSON(status, response)
}

// sanitizeErrorMessage hides messages that look like they carry secrets
func sanitizeErrorMessage(message string) string {
	lower := strings.ToLower(message)
	for _, pattern := range []string{"password", "secret", "token", "api_key"} {
		if strings.Contains(lower, pattern) {
			return "An internal error occurred"
		}
	}
	return message
}

// Error writes a failure envelope and aborts the chain
func (rh *ResponseHelper) Error(c *gin.Context, statusCode int, errorCode, message string, details ...string) {
	apiError := &APIError{
		Code:    errorCode,
		Message: sanitizeErrorMessage(message),
	}
	if len(details) > 0 && details[0] != "" {
		apiError.Details = sanitizeErrorMessage(details[0])
	}

	c.AbortWithStatusJSON(statusCode, &APIResponse{
		Success:   false,
		Error:     apiError,
		Timestamp: time.Now(),
		RequestID: rh.getRequestID(c),
	})
}

// FromError maps an AppError onto its status and code. Only validation
// errors expose their cause; anything else is logged instead.
func (rh *ResponseHelper) FromError(c *gin.Context, err error) {
	status, code := statusFor(err)

	message := http.StatusText(status)
	var details string
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
		if appErr.Type == apperrors.ErrorTypeValidation && appErr.Err != nil {
			details = appErr.Err.Error()
		}
	}

	if status >= http.StatusInternalServerError {
		rh.logger.Error("request failed", map[string]interface{}{
			"path":       c.Request.URL.Path,
			"code":       code,
			"error":      err.Error(),
			"request_id": rh.getRequestID(c),
		})
		utils.GetMetricsCollector().RecordError(code, "api")
	}
	rh.Error(c, status, code, message, details)
}

func (rh *ResponseHelper) BadRequest(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusBadRequest, ErrorBadRequest, message, details...)
}

func (rh *ResponseHelper) NotFound(c *gin.Context, resource string, details ...string) {
	code := ErrorNotFound
	if resource == "submission" {
		code = ErrorSubmissionMissing
	}
	rh.Error(c, http.StatusNotFound, code, resource+" not found", details...)
}

func (rh *ResponseHelper) InternalError(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusInternalServerError, ErrorInternalError, message, details...)
}

func (rh *ResponseHelper) Forbidden(c *gin.Context, message string, details ...string) {
	rh.Error(c, http.StatusForbidden, ErrorForbidden, message, details...)
}

func (rh *ResponseHelper) TooManyRequests(c *gin.Context, retryAfter time.Duration) {
	seconds := int(retryAfter.Seconds() + 0.999)
	if seconds < 1 {
		seconds = 1
	}
	c.Header("Retry-After", fmt.Sprintf("%d", seconds))
	rh.Error(c, http.StatusTooManyRequests, ErrorRateLimitExceeded, "too many requests, slow down")
}

// DownloadResponse renders an attachment produced by write. The body is
// buffered so a failed export still gets an error envelope.
func (rh *ResponseHelper) DownloadResponse(c *gin.Context, filename, contentType string, write func(w io.Writer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		rh.FromError(c, apperrors.WrapError(err, "export failed", apperrors.ErrorTypeError))
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (rh *ResponseHelper) getRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
