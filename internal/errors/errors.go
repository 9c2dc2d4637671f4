package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types for the board client
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPasswordMismatch   = errors.New("password and confirmation do not match")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrUnauthorized       = errors.New("unauthorized")

	// Token errors
	ErrNoRefreshToken = errors.New("no refresh token")
	ErrRefreshFailed  = errors.New("token refresh failed")

	// Session errors
	ErrMalformedSession = errors.New("malformed persisted session")
	ErrInvalidToken     = errors.New("invalid token")

	// General errors
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
	ErrInternal   = errors.New("internal error")
)

// StatusError is returned for any non-2xx response from the board API.
type StatusError struct {
	StatusCode int
	Method     string
	Path       string
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// Is maps well known status codes onto the package sentinels so callers can
// use errors.Is(err, ErrUnauthorized) without inspecting the status.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrBadRequest:
		return e.StatusCode == http.StatusBadRequest
	case ErrInternal:
		return e.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// IsUnauthorized reports whether err is a 401 response from the API.
func IsUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New is errors.New, re-exported so callers need a single errors import.
func New(text string) error {
	return errors.New(text)
}

// Join is errors.Join.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
