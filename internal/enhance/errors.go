package enhance

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrorCode is the closed set of failure categories surfaced to callers.
// Every failure mode — transport, HTTP status, structured service error,
// malformed body — maps onto exactly one of these.
type ErrorCode string

const (
	CodeUnsupportedFormat  ErrorCode = "unsupported_format"
	CodeDraftTooLarge      ErrorCode = "draft_too_large"
	CodeTimeout            ErrorCode = "timeout"
	CodeServiceUnavailable ErrorCode = "service_unavailable"
	CodeInternal           ErrorCode = "internal"
)

// Error is the single error type produced by the enhancement client.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

const cancelledMessage = "cancelled"

// cancelledError is the fixed error returned when the caller cancels a call.
// Cancellation is not a distinct code; it is this literal internal instance.
func cancelledError() *Error {
	return &Error{Code: CodeInternal, Message: cancelledMessage}
}

// IsCancelled reports whether err is the client's cancellation error.
func IsCancelled(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Code == CodeInternal && e.Message == cancelledMessage
}

// mapErrorCode translates a service-reported string code. Unrecognized or
// empty codes fall through to internal.
func mapErrorCode(code string) ErrorCode {
	switch strings.ToLower(code) {
	case "unsupported_format":
		return CodeUnsupportedFormat
	case "draft_too_large", "payload_too_large":
		return CodeDraftTooLarge
	case "timeout":
		return CodeTimeout
	case "service_unavailable", "overloaded":
		return CodeServiceUnavailable
	default:
		return CodeInternal
	}
}

// mapStatus translates an HTTP status when the body carries no usable code.
func mapStatus(status int) ErrorCode {
	switch status {
	case http.StatusRequestTimeout, http.StatusGatewayTimeout, http.StatusTooManyRequests:
		return CodeTimeout
	case http.StatusRequestEntityTooLarge:
		return CodeDraftTooLarge
	case http.StatusUnsupportedMediaType:
		return CodeUnsupportedFormat
	}
	if status >= 400 && status < 600 {
		return CodeServiceUnavailable
	}
	return CodeInternal
}

// classifyTransport maps a failure that happened before any HTTP status
// existed: timeouts, refused connections, everything else.
func classifyTransport(err error) *Error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Code: CodeTimeout, Message: err.Error()}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Code: CodeTimeout, Message: err.Error()}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return &Error{Code: CodeServiceUnavailable, Message: err.Error()}
	}
	return &Error{Code: CodeInternal, Message: err.Error()}
}
