package dto

import (
	"net/http"

	"github.com/fieldservice/backend/internal/domain/shared"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodePayloadTooLarge is used when the body exceeds the route limit
	ErrCodePayloadTooLarge = "ERR_PAYLOAD_TOO_LARGE"
)

// Resource error codes
const (
	ErrCodeNotFound     = "ERR_NOT_FOUND"
	ErrCodeConflict     = "ERR_CONFLICT"
	ErrCodeInvalidState = "ERR_INVALID_STATE"
)

// Request context error codes
const (
	// ErrCodeTenantRequired is used when no tenant header was sent
	ErrCodeTenantRequired = "ERR_TENANT_REQUIRED"
)

// kindHTTPStatus maps domain error kinds to HTTP status codes
var kindHTTPStatus = map[shared.ErrorKind]int{
	shared.KindValidation:   http.StatusBadRequest,
	shared.KindNotFound:     http.StatusNotFound,
	shared.KindConflict:     http.StatusConflict,
	shared.KindInvalidState: http.StatusUnprocessableEntity,
}

// kindFallbackCode is used when a domain error carries no code of its own
var kindFallbackCode = map[shared.ErrorKind]string{
	shared.KindValidation:   ErrCodeValidation,
	shared.KindNotFound:     ErrCodeNotFound,
	shared.KindConflict:     ErrCodeConflict,
	shared.KindInvalidState: ErrCodeInvalidState,
}

// StatusForKind returns the HTTP status for a domain error kind.
// Returns 500 Internal Server Error for an empty or unknown kind.
func StatusForKind(kind shared.ErrorKind) int {
	if status, ok := kindHTTPStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// CodeForKind returns the generic error code for a domain error kind
func CodeForKind(kind shared.ErrorKind) string {
	if code, ok := kindFallbackCode[kind]; ok {
		return code
	}
	return ErrCodeInternal
}
