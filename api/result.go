// Package api
// Author: momentics@gmail.com
//
// Three-way outcome of a non-blocking operation.

package api

import "code.hybscloud.com/iox"

// Status tells the three outcomes of a Result apart.
type Status uint8

const (
	// StatusReady means the operation completed and Value is meaningful.
	StatusReady Status = iota
	// StatusNotReady means the operation would have blocked. It is not an error.
	StatusNotReady
	// StatusFailed means the operation failed with a hard error.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusNotReady:
		return "not-ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result wraps the payload of a non-blocking operation, the absence of one,
// or a hard error.
type Result[T any] struct {
	value  T
	err    error
	status Status
}

// Ok returns a completed result carrying v.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v, status: StatusReady}
}

// NotReady returns the would-block outcome.
func NotReady[T any]() Result[T] {
	return Result[T]{status: StatusNotReady}
}

// Fail returns a failed result. A nil err is replaced by ErrInvalidArgument
// so that a failed result always carries an error.
func Fail[T any](err error) Result[T] {
	if err == nil {
		err = ErrInvalidArgument
	}
	return Result[T]{err: err, status: StatusFailed}
}

// Status returns the outcome kind.
func (r Result[T]) Status() Status { return r.status }

// IsReady reports whether the operation completed.
func (r Result[T]) IsReady() bool { return r.status == StatusReady }

// WouldBlock reports whether the operation could not make progress.
func (r Result[T]) WouldBlock() bool { return r.status == StatusNotReady }

// Failed reports whether the operation hit a hard error.
func (r Result[T]) Failed() bool { return r.status == StatusFailed }

// Value returns the payload; it is the zero value unless IsReady.
func (r Result[T]) Value() T { return r.value }

// Err returns nil when ready, iox.ErrWouldBlock when not ready, and the hard
// error otherwise.
func (r Result[T]) Err() error {
	switch r.status {
	case StatusReady:
		return nil
	case StatusNotReady:
		return iox.ErrWouldBlock
	default:
		return r.err
	}
}

// Get unpacks the result: ok is true only for completed operations, err is
// non-nil only for hard failures.
func (r Result[T]) Get() (v T, ok bool, err error) {
	if r.status == StatusFailed {
		return v, false, r.err
	}
	return r.value, r.status == StatusReady, nil
}
