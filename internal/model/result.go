package model

import (
	"errors"
	"fmt"
)

// Status is the outcome of a fetch.
type Status string

const (
	StatusOK    Status = "ok"
	StatusEmpty Status = "empty"
	StatusError Status = "error"
)

// ErrorKind classifies fetch failures.
type ErrorKind string

const (
	KindNetwork      ErrorKind = "network"
	KindNoData       ErrorKind = "no_data"
	KindInvalidInput ErrorKind = "invalid_input"
	KindUpstream     ErrorKind = "upstream"
	KindCanceled     ErrorKind = "canceled"
)

var (
	ErrNoData       = errors.New("no data returned")
	ErrInvalidInput = errors.New("invalid input")
)

// FetchError carries the failure kind of a provider call.
type FetchError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetchError wraps err with a kind and the failing operation.
func NewFetchError(kind ErrorKind, op string, err error) *FetchError {
	return &FetchError{Kind: kind, Op: op, Err: err}
}

// FetchResult is either a populated value or "unavailable". Empty and Error both
// render as an empty table; the distinction is kept for status display and logs.
type FetchResult[T any] struct {
	Status Status
	Value  T
	Kind   ErrorKind
	Reason string
}

// OK wraps a populated value.
func OK[T any](v T) FetchResult[T] {
	return FetchResult[T]{Status: StatusOK, Value: v}
}

// Empty marks a successful fetch that returned nothing.
func Empty[T any]() FetchResult[T] {
	return FetchResult[T]{Status: StatusEmpty, Kind: KindNoData, Reason: ErrNoData.Error()}
}

// Failed marks a failed fetch.
func Failed[T any](kind ErrorKind, reason string) FetchResult[T] {
	return FetchResult[T]{Status: StatusError, Kind: kind, Reason: reason}
}

// Available reports whether the result holds data to render.
func (r FetchResult[T]) Available() bool {
	return r.Status == StatusOK
}
