package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a cache entry is not found
	ErrNotFound = errors.New("cache entry not found")
	// ErrExpired is returned when a cache entry has expired
	ErrExpired = errors.New("cache entry expired")
	// ErrNotDelivered is returned by a notifier that accepted a message without sending it
	ErrNotDelivered = errors.New("message not delivered")
)

// TransientError is a failure worth retrying: a network error, a 5xx or any
// other non-2xx status the caller did not special-case
type TransientError struct {
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transient failure (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transient failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// FatalError is a failure that retrying cannot fix, such as a malformed body
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal failure: %v", e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// FatalAuditError aborts the whole run. It is raised when a business invariant
// trips, e.g. an automated price correction larger than the allowed adjustment.
type FatalAuditError struct {
	Check  string
	Reason string
}

func (e *FatalAuditError) Error() string {
	return fmt.Sprintf("audit aborted by %s: %s", e.Check, e.Reason)
}

// IsFatalAudit reports whether err carries a FatalAuditError
func IsFatalAudit(err error) bool {
	var fatal *FatalAuditError
	return errors.As(err, &fatal)
}
