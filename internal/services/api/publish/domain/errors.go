package domain

import (
	"net/http"
)

// Failure categories surfaced in the error_type field
const (
	KindConfiguration = "ConfigurationError"
	KindValidation    = "ValidationError"
	KindTransient     = "TransientUpstreamError"
	KindPlatform      = "PlatformRejection"
	KindResultShape   = "ResultShapeError"
)

// PublishError is the one failure type the publish flow produces
// it carries everything the transport needs to build a Failure body
type PublishError struct {
	Status      int
	Kind        string
	Msg         string
	Message     string
	Hint        string
	XHSCode     *int
	XHSMsg      string
	Suggestions []string

	cause error
}

func (e *PublishError) Error() string { return e.Msg }

// Unwrap exposes the underlying cause for errors.Is and errors.As
func (e *PublishError) Unwrap() error { return e.cause }

// Wire builds the JSON failure body for this error
func (e *PublishError) Wire() Failure {
	return Failure{
		Success:     false,
		Error:       e.Msg,
		ErrorType:   e.Kind,
		Message:     e.Message,
		Hint:        e.Hint,
		XHSCode:     e.XHSCode,
		XHSMsg:      e.XHSMsg,
		Suggestions: e.Suggestions,
	}
}

// ErrConfiguration reports a missing or broken deployment setting
func ErrConfiguration(msg, message string) *PublishError {
	return &PublishError{Status: http.StatusInternalServerError, Kind: KindConfiguration, Msg: msg, Message: message}
}

// ErrValidation reports bad request input, no network call was made
func ErrValidation(msg string) *PublishError {
	return &PublishError{Status: http.StatusBadRequest, Kind: KindValidation, Msg: msg}
}

// ErrCredential reports a missing or incomplete platform cookie
func ErrCredential(msg, message, hint string) *PublishError {
	return &PublishError{
		Status:  http.StatusUnauthorized,
		Kind:    KindValidation,
		Msg:     msg,
		Message: message,
		Hint:    hint,
	}
}

// ErrUpstream reports an upstream failure that survived local retries
func ErrUpstream(cause error) *PublishError {
	return &PublishError{
		Status: http.StatusInternalServerError,
		Kind:   KindTransient,
		Msg:    cause.Error(),
		cause:  cause,
	}
}

// ErrPlatform reports a structured rejection from the platform itself
func ErrPlatform(cause error, code int, msg string, suggestions []string) *PublishError {
	return &PublishError{
		Status:      http.StatusInternalServerError,
		Kind:        KindPlatform,
		Msg:         cause.Error(),
		XHSCode:     &code,
		XHSMsg:      msg,
		Suggestions: suggestions,
		cause:       cause,
	}
}

// ErrResultShape reports a successful adapter call whose response
// carried no note identifier
func ErrResultShape(msg string) *PublishError {
	return &PublishError{Status: http.StatusInternalServerError, Kind: KindResultShape, Msg: msg}
}
