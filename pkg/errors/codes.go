package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// Codes are grouped by module prefix ("COMMON", "RXN", "TEL", "AI").
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeFeatureDisabled    ErrorCode = "COMMON_015"
)

// Aliases used by call sites that predate the module prefixes.
const (
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
)

// Reaction pipeline error codes.
const (
	// ErrCodeStructureParse is a ParseFailure for a molecule structure string.
	ErrCodeStructureParse ErrorCode = "RXN_001"
	// ErrCodeTemplateParse is a ParseFailure for a reaction template expression.
	ErrCodeTemplateParse ErrorCode = "RXN_002"
	// ErrCodeNoValidReactants is raised when every reactant failed to parse.
	ErrCodeNoValidReactants ErrorCode = "RXN_003"
	// ErrCodeRunFailure is a structural fault while applying a template.
	ErrCodeRunFailure ErrorCode = "RXN_004"
	// ErrCodeScoringDegraded marks a fail-open verdict.
	ErrCodeScoringDegraded ErrorCode = "RXN_005"
	// ErrCodeRequestInvalid is raised when required request fields are absent.
	ErrCodeRequestInvalid ErrorCode = "RXN_006"
	// ErrCodeCatalogEntryNotFound is raised for an unknown reaction id.
	ErrCodeCatalogEntryNotFound ErrorCode = "RXN_007"
	// ErrCodeSanitize is raised when a structure parses but is chemically inconsistent.
	ErrCodeSanitize ErrorCode = "RXN_008"
)

// Telemetry error codes.
const (
	ErrCodeTelemetryPersist ErrorCode = "TEL_001"
	ErrCodeTelemetryLoad    ErrorCode = "TEL_002"
	ErrCodeBackupFailed     ErrorCode = "TEL_003"
	ErrCodePublishFailed    ErrorCode = "TEL_004"
)

// AI/ML Module Error Codes
const (
	ErrCodeAIModelNotAvailable ErrorCode = "AI_001"
	ErrCodeAIInferenceFailed   ErrorCode = "AI_002"
	ErrCodeAIInputInvalid      ErrorCode = "AI_004"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.  Only transport-level
// faults are rendered with these statuses; pipeline failures are returned as
// 200 responses carrying an error field.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeFeatureDisabled:    http.StatusForbidden,

	ErrCodeStructureParse:       http.StatusBadRequest,
	ErrCodeTemplateParse:        http.StatusBadRequest,
	ErrCodeNoValidReactants:     http.StatusBadRequest,
	ErrCodeRunFailure:           http.StatusUnprocessableEntity,
	ErrCodeScoringDegraded:      http.StatusOK,
	ErrCodeRequestInvalid:       http.StatusBadRequest,
	ErrCodeCatalogEntryNotFound: http.StatusNotFound,
	ErrCodeSanitize:             http.StatusBadRequest,

	ErrCodeTelemetryPersist: http.StatusInternalServerError,
	ErrCodeTelemetryLoad:    http.StatusInternalServerError,
	ErrCodeBackupFailed:     http.StatusInternalServerError,
	ErrCodePublishFailed:    http.StatusBadGateway,

	ErrCodeAIModelNotAvailable: http.StatusServiceUnavailable,
	ErrCodeAIInferenceFailed:   http.StatusInternalServerError,
	ErrCodeAIInputInvalid:      http.StatusBadRequest,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeFeatureDisabled:    "feature disabled",

	ErrCodeStructureParse:       "invalid molecule structure",
	ErrCodeTemplateParse:        "invalid reaction template",
	ErrCodeNoValidReactants:     "no valid reactant molecules",
	ErrCodeRunFailure:           "reaction execution failed",
	ErrCodeScoringDegraded:      "validation skipped",
	ErrCodeRequestInvalid:       "invalid reaction request",
	ErrCodeCatalogEntryNotFound: "reaction not found in catalog",
	ErrCodeSanitize:             "molecule failed sanitization",

	ErrCodeTelemetryPersist: "failed to persist telemetry",
	ErrCodeTelemetryLoad:    "failed to load telemetry",
	ErrCodeBackupFailed:     "backup failed",
	ErrCodePublishFailed:    "failed to publish event",

	ErrCodeAIModelNotAvailable: "embedding model not available",
	ErrCodeAIInferenceFailed:   "embedding inference failed",
	ErrCodeAIInputInvalid:      "invalid input for embedding model",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
