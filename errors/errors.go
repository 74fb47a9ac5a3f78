package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

var (
	ErrChannelNotFound    = fmt.Errorf("channel not found")
	ErrGroupNotFound      = fmt.Errorf("group not found")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrInvalidInput       = fmt.Errorf("invalid input")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrForbidden          = fmt.Errorf("forbidden")
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrEmptyWords         = fmt.Errorf("no words have been found")
)

// MapToHTTPStatus translates domain errors into HTTP status codes.
// Unknown errors are treated as internal storage failures.
func MapToHTTPStatus(err error) int {
	switch {
	case stderrors.Is(err, ErrChannelNotFound),
		stderrors.Is(err, ErrGroupNotFound),
		stderrors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case stderrors.Is(err, ErrUserAlreadyExists):
		return http.StatusConflict
	case stderrors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case stderrors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
