package errors

import (
	"context"
	stderrs "errors"
	"net"
)

// Retryable reports whether err is a transient failure worth retrying.
// Transient means upstream unavailability, rate limiting, or a network
// level timeout; validation and auth failures never retry.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	switch CodeOf(err) {
	case ErrorCodeUnavailable, ErrorCodeTooManyRequests:
		return true
	case ErrorCodeValidation, ErrorCodeUnauthorized, ErrorCodeForbidden,
		ErrorCodeInvalidArgument, ErrorCodeJSON, ErrorCodeNotFound:
		return false
	}
	var ne net.Error
	if stderrs.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
