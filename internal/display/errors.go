package display

import (
	"errors"
	"fmt"
)

var (
	// ErrQueryFailed reports that reading the live topology failed.
	ErrQueryFailed = errors.New("display topology query failed")
	// ErrCommitFailed reports that both commit attempts were rejected.
	ErrCommitFailed = errors.New("display topology commit failed")
	// ErrSignalFailed reports that the power-off broadcast could not be sent.
	ErrSignalFailed = errors.New("display power-off signal failed")
)

// QueryError wraps a driver failure while reading the topology.
type QueryError struct {
	ActiveOnly bool
	Err        error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%v (active only: %t): %v", ErrQueryFailed, e.ActiveOnly, e.Err)
}

func (e *QueryError) Unwrap() []error { return []error{ErrQueryFailed, e.Err} }

// CommitError carries the OS status of the final rejected commit attempt.
type CommitError struct {
	// Status is the OS-specific status code, 0 when the driver did not
	// report one.
	Status int64
	Err    error
}

func (e *CommitError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%v (status %d): %v", ErrCommitFailed, e.Status, e.Err)
	}
	return fmt.Sprintf("%v: %v", ErrCommitFailed, e.Err)
}

func (e *CommitError) Unwrap() []error { return []error{ErrCommitFailed, e.Err} }

// SignalError wraps a failed power-off broadcast.
type SignalError struct {
	Err error
}

func (e *SignalError) Error() string {
	return fmt.Sprintf("%v: %v", ErrSignalFailed, e.Err)
}

func (e *SignalError) Unwrap() []error { return []error{ErrSignalFailed, e.Err} }

// StatusError is returned by drivers that can attach an OS status code to a
// rejected commit.
type StatusError struct {
	Op     string
	Status int64
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d", e.Op, e.Status)
}

func statusOf(err error) int64 {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}
