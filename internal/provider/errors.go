package provider

import (
	"errors"
	"fmt"
)

// ErrTransport matches every *TransportError.
var ErrTransport = errors.New("transport failed")

// APIError is a service-level rejection: HTTP succeeded but the payload code is non-zero.
type APIError struct {
	Op      string
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: rejected with code %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: rejected with code %d: %s", e.Op, e.Code, e.Message)
}

// TransportError covers network failures, non-2xx statuses and malformed payloads.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: http %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// IsRejected reports whether err is (or wraps) an *APIError.
func IsRejected(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// IsTransport reports whether err is (or wraps) a *TransportError.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// RejectCode returns the service code of a rejection, 0 otherwise.
func RejectCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
