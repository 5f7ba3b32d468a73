// Package domainerrors defines the coded error vocabulary the admission
// pipeline exposes to transport. Services construct these; handlers translate
// them to HTTP via pkg/platform/httputil.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of rejection. Codes are part of the wire contract.
type Code string

const (
	// CodeValidation covers missing or malformed input; the client should
	// retry with corrected data.
	CodeValidation Code = "validation_error"

	// CodeCaptcha means the human-proof check failed; the client must
	// re-solve the challenge and retry.
	CodeCaptcha Code = "captcha_error"

	// CodeUnverifiedHandle means the claimed handle could not be confirmed
	// real. Terminal for that handle.
	CodeUnverifiedHandle Code = "unverified_handle"

	// CodeUpstreamUnavailable means every external verification strategy was
	// inconclusive and the heuristic fallback also rejected. Clients treat it
	// like CodeUnverifiedHandle.
	CodeUpstreamUnavailable Code = "upstream_unavailable"

	CodeDuplicateOrigin   Code = "duplicate_origin"
	CodeDuplicateNickname Code = "duplicate_nickname"
	CodeDuplicateHandle   Code = "duplicate_handle"

	CodeRateLimited Code = "rate_limited"
	CodeInternal    Code = "internal_error"
)

// Error carries a code plus a human-readable description.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is lets errors.Is match two domain errors by code.
func (e *Error) Is(target error) bool {
	var de *Error
	if errors.As(target, &de) {
		return de.Code == e.Code
	}
	return false
}

// New constructs a domain error with the given code and description.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches an underlying cause for logging while keeping the coded
// surface for clients.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// CodeOf extracts the code from an error, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code onto its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeCaptcha:
		return http.StatusForbidden
	case CodeUnverifiedHandle, CodeUpstreamUnavailable:
		return http.StatusUnprocessableEntity
	case CodeDuplicateOrigin, CodeDuplicateNickname, CodeDuplicateHandle:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
