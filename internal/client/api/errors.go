package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrCancelled is returned when a transfer was cancelled by its owner.
	// Its status code is 0 so it never collides with an HTTP status.
	ErrCancelled = errors.New("transfer cancelled")

	// ErrNotFound matches a 404 StatusError: the resource is gone or its
	// download budget is exhausted.
	ErrNotFound = errors.New("resource not found")

	// ErrAuthRejected matches a 401 StatusError.
	ErrAuthRejected = errors.New("authentication rejected")
)

// StatusError is a terminal non-success HTTP status.
type StatusError struct {
	Op   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d (%s)", e.Op, e.Code, http.StatusText(e.Code))
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Code == http.StatusNotFound
	case ErrAuthRejected:
		return e.Code == http.StatusUnauthorized
	}
	return false
}

// TransportError means no response was received. It is never retried.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusCode reports the status carried by err: 0 for ErrCancelled, the
// HTTP code for a StatusError and -1 for anything else.
func StatusCode(err error) int {
	if errors.Is(err, ErrCancelled) {
		return 0
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return -1
}

// cancelled returns ErrCancelled once ctx has been cancelled. Deadlines are
// not cancellation and yield nil here.
func cancelled(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ErrCancelled
	}
	return nil
}

func transportError(ctx context.Context, op string, err error) error {
	if c := cancelled(ctx); c != nil {
		return c
	}
	if errors.Is(err, ErrCancelled) {
		return ErrCancelled
	}
	return &TransportError{Op: op, Err: err}
}
