// Package apperr defines the catalogued application errors.
// Every error that crosses a component boundary is one of these kinds;
// native driver errors are wrapped at the layer closest to the cause.
package apperr

import (
	"fmt"
	"net/http"
)

// Error is a catalogued application error. Code and Message are public and
// stable; Internal and the wrapped cause are reachable only through logs.
type Error struct {
	Code       string
	Message    string
	Internal   string
	HTTPStatus int
	Metadata   map[string]any
	Err        error
}

// Error returns the private description, including the cause when present.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Internal, e.Err)
	}
	return e.Internal
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same kind regardless of attached cause or metadata.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Wrap returns a copy of the error carrying err as its cause.
func (e *Error) Wrap(err error) *Error {
	clone := *e
	clone.Err = err
	return &clone
}

// WithContext returns a copy of the error with an added metadata entry.
func (e *Error) WithContext(key string, value any) *Error {
	clone := *e
	clone.Metadata = make(map[string]any, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		clone.Metadata[k] = v
	}
	clone.Metadata[key] = value
	return &clone
}

// WithMessage returns a copy of the error with a replaced public message.
func (e *Error) WithMessage(msg string) *Error {
	clone := *e
	clone.Message = msg
	return &clone
}

// URL resolution errors.
var (
	ErrURLNotFound = &Error{
		Code:       "URL_NOT_FOUND",
		Message:    "The short URL you're looking for does not exist",
		Internal:   "url not found in store",
		HTTPStatus: http.StatusNotFound,
	}

	ErrURLExpired = &Error{
		Code:       "URL_EXPIRED",
		Message:    "This short URL has expired",
		Internal:   "url expiration date has passed",
		HTTPStatus: http.StatusGone,
	}

	ErrURLInactive = &Error{
		Code:       "URL_INACTIVE",
		Message:    "This short URL is currently inactive",
		Internal:   "url is marked as inactive",
		HTTPStatus: http.StatusForbidden,
	}
)

// Authentication and authorization errors.
var (
	ErrUnauthorized = &Error{
		Code:       "UNAUTHORIZED",
		Message:    "Authentication required",
		Internal:   "missing or invalid authentication token",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrTokenExpired = &Error{
		Code:       "TOKEN_EXPIRED",
		Message:    "Your session has expired. Please log in again",
		Internal:   "bearer token has expired",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrInvalidToken = &Error{
		Code:       "INVALID_TOKEN",
		Message:    "Invalid authentication token",
		Internal:   "bearer token validation failed",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrInvalidSigningKey = &Error{
		Code:       "INVALID_SIGNING_KEY",
		Message:    "Authentication system error",
		Internal:   "token signed with an unexpected method",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrForbidden = &Error{
		Code:       "FORBIDDEN",
		Message:    "You don't have permission to access this resource",
		Internal:   "insufficient permissions",
		HTTPStatus: http.StatusForbidden,
	}
)

// Input validation errors.
var (
	ErrInvalidInput = &Error{
		Code:       "INVALID_INPUT",
		Message:    "The provided input is invalid",
		Internal:   "input validation failed",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrMissingRequiredField = &Error{
		Code:       "MISSING_REQUIRED_FIELD",
		Message:    "Required field is missing",
		Internal:   "required field validation failed",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidFormat = &Error{
		Code:       "INVALID_FORMAT",
		Message:    "The provided data format is invalid",
		Internal:   "data format validation failed",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrCustomAliasTaken = &Error{
		Code:       "CUSTOM_ALIAS_TAKEN",
		Message:    "This custom alias is already in use",
		Internal:   "custom alias collided with an existing short code",
		HTTPStatus: http.StatusBadRequest,
	}
)

// Infrastructure errors.
var (
	ErrDatabase = &Error{
		Code:       "DATABASE_ERROR",
		Message:    "A database error occurred. Please try again later",
		Internal:   "store operation failed",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrCache = &Error{
		Code:       "CACHE_ERROR",
		Message:    "A caching error occurred",
		Internal:   "cache operation failed",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrQueue = &Error{
		Code:       "QUEUE_ERROR",
		Message:    "A messaging queue error occurred",
		Internal:   "broker operation failed",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrExternalService = &Error{
		Code:       "EXTERNAL_SERVICE_ERROR",
		Message:    "An external service error occurred",
		Internal:   "external service call failed",
		HTTPStatus: http.StatusServiceUnavailable,
	}

	ErrRequestTimeout = &Error{
		Code:       "REQUEST_TIMEOUT",
		Message:    "Request timed out. Please try again",
		Internal:   "operation timeout",
		HTTPStatus: http.StatusRequestTimeout,
	}

	ErrServiceUnavailable = &Error{
		Code:       "SERVICE_UNAVAILABLE",
		Message:    "Service is temporarily unavailable. Please try again later",
		Internal:   "service unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
	}

	ErrRateLimitExceeded = &Error{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Too many requests. Please try again later",
		Internal:   "rate limit exceeded",
		HTTPStatus: http.StatusTooManyRequests,
	}

	ErrInternal = &Error{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "An unexpected error occurred. Please try again later",
		Internal:   "internal server error",
		HTTPStatus: http.StatusInternalServerError,
	}
)
