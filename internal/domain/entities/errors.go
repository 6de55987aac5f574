package entities

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for fatal API outcomes, matched with errors.Is
var (
	ErrUnauthorized = errors.New("authentication failed")
	ErrForbidden    = errors.New("access forbidden")
	ErrNotFound     = errors.New("resource not found")
)

// APIErrorKind classifies a failed API call
type APIErrorKind string

const (
	// APIErrorUnauthorized is an HTTP 401 or a failed token exchange
	APIErrorUnauthorized APIErrorKind = "unauthorized"
	// APIErrorForbidden is an HTTP 403
	APIErrorForbidden APIErrorKind = "forbidden"
	// APIErrorNotFound is an HTTP 404
	APIErrorNotFound APIErrorKind = "not_found"
	// APIErrorStatus is any other non-2xx status
	APIErrorStatus APIErrorKind = "status"
	// APIErrorTransport is a connection, timeout or decode failure
	APIErrorTransport APIErrorKind = "transport"
)

// APIError describes a failed call against a remote API
type APIError struct {
	Op     string // e.g. "list repositories"
	Kind   APIErrorKind
	Status int // 0 for transport errors
	Err    error
}

// NewStatusError builds an APIError from an HTTP status code
func NewStatusError(op string, status int, err error) *APIError {
	kind := APIErrorStatus
	switch status {
	case http.StatusUnauthorized:
		kind = APIErrorUnauthorized
	case http.StatusForbidden:
		kind = APIErrorForbidden
	case http.StatusNotFound:
		kind = APIErrorNotFound
	}
	return &APIError{Op: op, Kind: kind, Status: status, Err: err}
}

// NewTransportError wraps a transport-level failure
func NewTransportError(op string, err error) *APIError {
	return &APIError{Op: op, Kind: APIErrorTransport, Err: err}
}

func (e *APIError) Error() string {
	if e.Kind == APIErrorTransport {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.Status)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel errors by kind
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Kind == APIErrorUnauthorized
	case ErrForbidden:
		return e.Kind == APIErrorForbidden
	case ErrNotFound:
		return e.Kind == APIErrorNotFound
	}
	return false
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
