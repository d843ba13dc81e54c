// internal/common/errors/errors.go

// Package errors provides the standardized error taxonomy shared by the
// generator, the CLI and the HTTP API.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// User-input errors
	ErrCodeMissingCredential ErrorCode = "MISSING_CREDENTIAL"
	ErrCodeInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrCodeUnknownDriver     ErrorCode = "UNKNOWN_DRIVER"
	ErrCodeUnknownPrompt     ErrorCode = "UNKNOWN_PROMPT"
	ErrCodeNoPreview         ErrorCode = "NO_PREVIEW"

	// Upstream data errors
	ErrCodeUpstreamFetchFailed ErrorCode = "UPSTREAM_FETCH_FAILED"
	ErrCodeRaceNotFound        ErrorCode = "RACE_NOT_FOUND"

	// Generation errors
	ErrCodeRaceContextFailed  ErrorCode = "RACE_CONTEXT_FAILED"
	ErrCodeGenerationFailed   ErrorCode = "GENERATION_FAILED"
	ErrCodeResponseIncomplete ErrorCode = "RESPONSE_INCOMPLETE"
	ErrCodeNoTextContent      ErrorCode = "NO_TEXT_CONTENT"
	ErrCodeGenerationTimeout  ErrorCode = "GENERATION_TIMEOUT"

	// Storage errors
	ErrCodeStorageFailed ErrorCode = "STORAGE_FAILED"
	ErrCodeStateCorrupt  ErrorCode = "STATE_CORRUPT"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeRunInProgress          ErrorCode = "RUN_IN_PROGRESS"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata returns e with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Error Constructors
// ==========================

func NewMissingCredentialError() *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingCredential,
		Message:   "Please enter your OpenAI API key",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewUnknownDriverError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownDriver,
		Message:   "Driver not on the roster",
		Details:   fmt.Sprintf("driver: %s", name),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewUnknownPromptError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownPrompt,
		Message:   "Unknown prompt template",
		Details:   fmt.Sprintf("promptId: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewNoPreviewError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoPreview,
		Message:   "No preview available",
		Details:   fmt.Sprintf("driver: %s", name),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewUpstreamFetchFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamFetchFailed,
		Message:   fmt.Sprintf("Upstream '%s' fetch failed", source),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewRaceNotFoundError(circuit, season string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRaceNotFound,
		Message:   "Race not found in schedule",
		Details:   fmt.Sprintf("circuit: %s, season: %s", circuit, season),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRaceContextFailedError keeps the raw generation message in Details so
// callers can surface it verbatim.
func NewRaceContextFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRaceContextFailed,
		Message:   "Race context generation failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewGenerationFailedError(step string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationFailed,
		Message:   fmt.Sprintf("Generation step '%s' failed", step),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewResponseIncompleteError keeps the client's message as its own so the
// text shown to the user is unchanged.
func NewResponseIncompleteError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeResponseIncomplete,
		Message:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewGenerationTimeoutError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGenerationTimeout,
		Message:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewStorageFailedError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorageFailed,
		Message:   "Storage operation failed",
		Details:   fmt.Sprintf("op: %s, error: %s", op, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewStateCorruptError(key string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStateCorrupt,
		Message:   "Stored state is corrupt",
		Details:   fmt.Sprintf("key: %s, error: %s", key, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewRunInProgressError() *StandardError {
	return &StandardError{
		Code:      ErrCodeRunInProgress,
		Message:   "A generation run is already in progress",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// AsStandard extracts a StandardError from err's chain, if any.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandard(err)
	return ok && stdErr.Code == code
}

// GetRetryCount returns the number of automatic retries for a code. The
// pipeline never retries on its own; Retryable only tells the user that a
// manual rerun may succeed.
func GetRetryCount(code ErrorCode) int {
	return 0
}

// IsRetryableErrorCode reports whether a rerun of the same request may succeed.
func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeUpstreamFetchFailed,
		ErrCodeGenerationFailed,
		ErrCodeGenerationTimeout,
		ErrCodeStorageFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeRunInProgress:
		return true
	default:
		return false
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CREDENTIAL") || strings.Contains(codeStr, "INVALID") || strings.HasPrefix(codeStr, "UNKNOWN"):
		return "USER_INPUT"
	case strings.Contains(codeStr, "UPSTREAM") || strings.Contains(codeStr, "RACE_NOT_FOUND"):
		return "UPSTREAM"
	case strings.Contains(codeStr, "GENERATION") || strings.Contains(codeStr, "RESPONSE") ||
		strings.Contains(codeStr, "TEXT") || strings.Contains(codeStr, "CONTEXT"):
		return "GENERATION"
	case strings.Contains(codeStr, "STORAGE") || strings.Contains(codeStr, "STATE"):
		return "STORAGE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}

// HTTPStatus maps a code to the status the API answers with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeMissingCredential, ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeUnknownDriver, ErrCodeUnknownPrompt, ErrCodeNoPreview, ErrCodeRaceNotFound:
		return http.StatusNotFound
	case ErrCodeUpstreamFetchFailed, ErrCodeRaceContextFailed, ErrCodeGenerationFailed,
		ErrCodeResponseIncomplete, ErrCodeNoTextContent:
		return http.StatusBadGateway
	case ErrCodeGenerationTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeRunInProgress:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
