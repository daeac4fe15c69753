// Package errors provides standardized error handling for the advisory engine
// and its workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Request-level failures: no safe fallback exists.
const (
	ErrCodeUnsupportedCrop   ErrorCode = "UNSUPPORTED_CROP"
	ErrCodeUnsupportedRegion ErrorCode = "UNSUPPORTED_REGION"
	ErrCodeNoReachableMarket ErrorCode = "NO_REACHABLE_MARKET"
	ErrCodeInvalidRequest    ErrorCode = "INVALID_REQUEST"
)

// Recovered locally by the engine; they degrade confidence instead.
const (
	ErrCodeNoPriceData         ErrorCode = "NO_PRICE_DATA"
	ErrCodeForecastUnavailable ErrorCode = "FORECAST_UNAVAILABLE"
)

// Infrastructure failures.
const (
	ErrCodeDataLoadFailed           ErrorCode = "DATA_LOAD_FAILED"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeAnalysisFailed           ErrorCode = "ANALYSIS_FAILED"
	ErrCodeWorkflowEngineFailed     ErrorCode = "WORKFLOW_ENGINE_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is matches on error code so callers can compare against the sentinel
// values below with errors.Is.
func (e *StandardError) Is(target error) bool {
	var t *StandardError
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is comparisons.
var (
	ErrUnsupportedCrop     = &StandardError{Code: ErrCodeUnsupportedCrop}
	ErrUnsupportedRegion   = &StandardError{Code: ErrCodeUnsupportedRegion}
	ErrNoReachableMarket   = &StandardError{Code: ErrCodeNoReachableMarket}
	ErrNoPriceData         = &StandardError{Code: ErrCodeNoPriceData}
	ErrForecastUnavailable = &StandardError{Code: ErrCodeForecastUnavailable}
)

// CodeOf extracts the error code from err, or "" when err is not a StandardError.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func NewUnsupportedCropError(crop string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnsupportedCrop,
		Message:   "Crop is not supported",
		Details:   fmt.Sprintf("crop: %s", crop),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewUnsupportedRegionError(state, district string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnsupportedRegion,
		Message:   "Region is not supported",
		Details:   fmt.Sprintf("state: %s, district: %s", state, district),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewNoReachableMarketError(state, district string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoReachableMarket,
		Message:   "No mandi is reachable from this location",
		Details:   fmt.Sprintf("state: %s, district: %s", state, district),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Analysis request failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewNoPriceDataError(commodity, market string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoPriceData,
		Message:   "No price records for commodity at market",
		Details:   fmt.Sprintf("commodity: %s, market: %s", commodity, market),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewForecastUnavailableError wraps a live provider failure. It never leaves
// the engine; callers fall back to the simulated forecast.
func NewForecastUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeForecastUnavailable,
		Message:   "Live forecast provider unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewDataLoadFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDataLoadFailed,
		Message:   "Reference data could not be loaded",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewQueryExecutionFailedError(query string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("query: %s, error: %s", query, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Advisory notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewAnalysisFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAnalysisFailed,
		Message:   "Analysis could not be completed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewWorkflowEngineError wraps a failed Zeebe command. Connection and timeout
// failures are retryable; rejections are not.
func NewWorkflowEngineError(operation string, err error, retryable bool) *StandardError {
	return &StandardError{
		Code:      ErrCodeWorkflowEngineFailed,
		Message:   "Workflow engine command failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Retry Policy & Mapping
// ==========================

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeUnsupportedCrop:          "UNSUPPORTED_CROP",
	ErrCodeUnsupportedRegion:        "UNSUPPORTED_REGION",
	ErrCodeNoReachableMarket:        "NO_REACHABLE_MARKET",
	ErrCodeInvalidRequest:           "INVALID_REQUEST",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:     "QUERY_EXECUTION_FAILED",
	ErrCodeNotificationSendFailed:   "NOTIFICATION_SEND_FAILED",
	ErrCodeAnalysisFailed:           "ANALYSIS_FAILED",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeWorkflowEngineFailed:
		return 3
	case ErrCodeForecastUnavailable:
		return 1
	default:
		return 0 // business errors: no retry
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "UNSUPPORTED") || strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "MARKET") || strings.Contains(codeStr, "PRICE"):
		return "MARKET"
	case strings.Contains(codeStr, "FORECAST"):
		return "WEATHER"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "DATA_LOAD"):
		return "DATA"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "WORKFLOW"):
		return "WORKFLOW"
	default:
		return "OTHER"
	}
}
