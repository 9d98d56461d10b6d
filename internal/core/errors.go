package core

import (
	"errors"

	"github.com/vovakirdan/wirechat-router/internal/service/chat"
)

// Error codes for envelope failures that do not come from the chat domain.
const (
	ErrCodeUnauthenticated = "unauthenticated"
	ErrCodeBadRequest      = "bad_request"
	ErrCodeUnknownCommand  = "unknown_command"
	ErrCodeInternal        = "internal"
)

var (
	// ErrUnauthenticated is returned when a connection's credentials do not resolve.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrSessionClosed is returned when submitting to a closed session.
	ErrSessionClosed = errors.New("session closed")
	// ErrSessionInactive is returned when submitting before the session is active.
	ErrSessionInactive = errors.New("session not active")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// BadRequest reports a payload that could not be decoded.
func BadRequest(msg string) *CoreError {
	return coreError(ErrCodeBadRequest, msg)
}

// toCoreError converts a handler error into what the client may see.
// Anything that is not a domain error is reported as internal.
func toCoreError(err error) (*CoreError, bool) {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce, true
	}
	var de *chat.Error
	if errors.As(err, &de) {
		return coreError(string(de.Code), de.Message), true
	}
	return coreError(ErrCodeInternal, "internal error"), false
}
