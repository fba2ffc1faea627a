package errors

import (
	"context"
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// Domain sentinels shared by the services. Handlers never match on
// these directly; Map translates them to HTTP responses.
var (
	ErrBanned          = errors.New("user is banned")
	ErrAlreadyChatting = errors.New("user already has an active chat")
	ErrNotInChat       = errors.New("user has no active chat")
	ErrFeatureLocked   = errors.New("feature not unlocked")
	ErrUnauthorized    = errors.New("unauthorized")
)

// Error is an HTTP-mappable error carrying a status code.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// Map converts repo/infra/domain errors into HTTP-friendly errors.
// Keeps handlers clean by centralizing the translation.
func Map(err error) *Error {
	if err == nil {
		return nil
	}

	var mapped *Error
	if errors.As(err, &mapped) {
		return mapped
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Status: http.StatusNotFound, Message: "record not found"}

	case errors.Is(err, ErrBanned):
		return &Error{Status: http.StatusForbidden, Message: ErrBanned.Error()}

	case errors.Is(err, ErrUnauthorized):
		return &Error{Status: http.StatusUnauthorized, Message: ErrUnauthorized.Error()}

	case errors.Is(err, ErrFeatureLocked):
		return &Error{Status: http.StatusForbidden, Message: ErrFeatureLocked.Error()}

	case errors.Is(err, ErrAlreadyChatting):
		return &Error{Status: http.StatusConflict, Message: ErrAlreadyChatting.Error()}

	case errors.Is(err, ErrNotInChat):
		return &Error{Status: http.StatusConflict, Message: ErrNotInChat.Error()}

	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Status: http.StatusGatewayTimeout, Message: "request timed out"}

	case errors.Is(err, context.Canceled):
		return &Error{Status: http.StatusServiceUnavailable, Message: "request was canceled"}

	default:
		// fallback → bubble up error message for debugging
		return &Error{Status: http.StatusInternalServerError, Message: err.Error()}
	}
}

// InvalidArgument creates a 400 error. Use in the service layer for bad
// input validation.
func InvalidArgument(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg}
}

// NotFound creates a 404 error.
func NotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Message: msg}
}

// AlreadyExists creates a 409 error.
func AlreadyExists(msg string) *Error {
	return &Error{Status: http.StatusConflict, Message: msg}
}
