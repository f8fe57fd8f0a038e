package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound represents an error when a requested resource is not found.
type ErrNotFound struct {
	Resource string
	URL      string
}

// Error implements the error interface.
func (e *ErrNotFound) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s not found at URL: %s", e.Resource, e.URL)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is allows for error checking with errors.Is().
func (e *ErrNotFound) Is(target error) bool {
	_, ok := target.(*ErrNotFound)
	return ok
}

// NewNotFoundError creates a new ErrNotFound.
func NewNotFoundError(resource string, url string) *ErrNotFound {
	return &ErrNotFound{
		Resource: resource,
		URL:      url,
	}
}

// ErrMalformedInput is returned when a caller-supplied or upstream value cannot be interpreted,
// e.g. a candidate identifier with missing fields or a detail URL without a title slug.
type ErrMalformedInput struct {
	Field  string
	Value  string
	Reason string
}

// Error implements the error interface.
func (e *ErrMalformedInput) Error() string {
	return fmt.Sprintf("malformed %s %q: %s", e.Field, e.Value, e.Reason)
}

// Is allows for error checking with errors.Is().
func (e *ErrMalformedInput) Is(target error) bool {
	_, ok := target.(*ErrMalformedInput)
	return ok
}

// NewMalformedIDError creates the error returned when a candidate identifier cannot be decoded.
func NewMalformedIDError(id string, reason string) *ErrMalformedInput {
	return &ErrMalformedInput{
		Field:  "subtitle id",
		Value:  id,
		Reason: reason,
	}
}

// ErrTransport is returned when an HTTP request fails or answers with a non-2xx status.
// StatusCode is 0 when no response was received.
type ErrTransport struct {
	URL        string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *ErrTransport) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("request to %s failed with status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ErrTransport) Unwrap() error {
	return e.Err
}

// Is allows for error checking with errors.Is().
func (e *ErrTransport) Is(target error) bool {
	_, ok := target.(*ErrTransport)
	return ok
}

// ErrArchive is returned when a downloaded container cannot be unpacked.
type ErrArchive struct {
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *ErrArchive) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupt subtitle archive: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("corrupt subtitle archive: %s", e.Reason)
}

// Unwrap returns the underlying cause.
func (e *ErrArchive) Unwrap() error {
	return e.Err
}

// Is allows for error checking with errors.Is().
func (e *ErrArchive) Is(target error) bool {
	_, ok := target.(*ErrArchive)
	return ok
}

// NewArchiveError creates a new ErrArchive.
func NewArchiveError(reason string, err error) *ErrArchive {
	return &ErrArchive{Reason: reason, Err: err}
}

// Kind classifies an error returned by the provider so callers can switch on it.
type Kind int

const (
	KindOK Kind = iota
	KindNotFound
	KindMalformedInput
	KindTransport
	KindArchive
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindNotFound:
		return "not_found"
	case KindMalformedInput:
		return "malformed_input"
	case KindTransport:
		return "transport_error"
	case KindArchive:
		return "archive_error"
	default:
		return "unknown"
	}
}

// KindOf returns the Kind of err. A nil error is KindOK.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, &ErrNotFound{}):
		return KindNotFound
	case errors.Is(err, &ErrMalformedInput{}):
		return KindMalformedInput
	case errors.Is(err, &ErrArchive{}):
		return KindArchive
	case errors.Is(err, &ErrTransport{}):
		return KindTransport
	default:
		return KindUnknown
	}
}
