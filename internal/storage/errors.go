package storage

import (
	"errors"
	"fmt"
)

// ErrorKind classifies storage failures.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindAccessDenied ErrorKind = "access_denied"
	// KindNetwork covers transport and I/O failures on the way to the data.
	KindNetwork ErrorKind = "network"
	// KindInvalid marks an unusable storage configuration or path.
	KindInvalid ErrorKind = "invalid_config"
)

// StorageError is returned by every adapter operation that fails.
type StorageError struct {
	Kind     ErrorKind
	Location string
	Err      error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Location, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, location string, err error) *StorageError {
	return &StorageError{Kind: kind, Location: location, Err: err}
}

// KindOf returns the ErrorKind of err, or "" if err is not a StorageError.
func KindOf(err error) ErrorKind {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// httpStatus extracts an HTTP status code from SDK errors that expose one.
func httpStatus(err error) int {
	var status interface{ HTTPStatusCode() int }
	if errors.As(err, &status) {
		return status.HTTPStatusCode()
	}
	return 0
}

func kindForStatus(code int) ErrorKind {
	switch code {
	case 404:
		return KindNotFound
	case 401, 403:
		return KindAccessDenied
	default:
		return KindNetwork
	}
}

// Hint returns a short remediation hint for err's kind, or "" when err is
// not a StorageError.
func Hint(err error) string {
	return HintFor(KindOf(err))
}

// HintFor returns a short remediation hint for kind.
func HintFor(kind ErrorKind) string {
	switch kind {
	case KindNotFound:
		return "check the directory, bucket, or container name"
	case KindAccessDenied:
		return "check credentials (AWS_* or AZURE_STORAGE_* environment variables)"
	case KindNetwork:
		return "check network connectivity and the endpoint; retrying may help"
	case KindInvalid:
		return "check the storage configuration"
	default:
		return ""
	}
}
