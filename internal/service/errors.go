package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a rejected report queue operation
type ErrorKind string

const (
	// KindNotFound covers both "no such entry" and "entry belongs to an
	// organization the caller is not a member of"; the two are intentionally
	// indistinguishable so existence does not leak across tenants.
	KindNotFound ErrorKind = "not_found"

	// KindForbidden means the entry is visible but the caller's role or
	// ownership is insufficient, or the storage layer's own policy vetoed
	// the action.
	KindForbidden ErrorKind = "forbidden"

	// KindInvalidState means a state-machine precondition failed.
	KindInvalidState ErrorKind = "invalid_state"

	// KindRetryExhausted means retryCount already equals maxRetries.
	KindRetryExhausted ErrorKind = "retry_exhausted"

	// KindUnavailable means a completed report's file reference is
	// unexpectedly absent.
	KindUnavailable ErrorKind = "unavailable"

	// KindDispatchFailed means the queue row was updated but the worker
	// notification could not be delivered; the row stays queued for the
	// reconciliation sweep.
	KindDispatchFailed ErrorKind = "dispatch_failed"

	// KindUnexpected is any unhandled internal failure; reported generically,
	// logged in full.
	KindUnexpected ErrorKind = "unexpected"
)

// QueueError is the structured failure returned by every report queue
// operation. Raw storage errors never reach the caller.
type QueueError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *QueueError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *QueueError) Unwrap() error {
	return e.Err
}

// AsQueueError extracts a *QueueError from an error chain
func AsQueueError(err error) (*QueueError, bool) {
	var qerr *QueueError
	if errors.As(err, &qerr) {
		return qerr, true
	}
	return nil, false
}

func errNotFound() *QueueError {
	return &QueueError{Kind: KindNotFound, Message: "Report not found"}
}

func errForbidden(message string) *QueueError {
	return &QueueError{Kind: KindForbidden, Message: message}
}

func errInvalidState(message string) *QueueError {
	return &QueueError{Kind: KindInvalidState, Message: message}
}

func errRetryExhausted() *QueueError {
	return &QueueError{Kind: KindRetryExhausted, Message: "Maximum retry limit reached"}
}

func errUnavailable(message string) *QueueError {
	return &QueueError{Kind: KindUnavailable, Message: message}
}

func errDispatchFailed(err error) *QueueError {
	return &QueueError{Kind: KindDispatchFailed, Message: "Report queued but worker notification failed", Err: err}
}

func errUnexpected(err error) *QueueError {
	return &QueueError{Kind: KindUnexpected, Message: "Internal error", Err: err}
}
