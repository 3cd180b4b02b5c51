package content

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced by the repository.
type ErrorKind string

const (
	KindNotFound              ErrorKind = "not_found"
	KindInvalidPagination     ErrorKind = "invalid_pagination"
	KindRepositoryUnavailable ErrorKind = "repository_unavailable"
	KindMalformed             ErrorKind = "malformed"
)

// Error carries the kind of failure, the operation that produced it and the underlying cause.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

// Sentinels for errors.Is; they match any *Error of the same kind.
var (
	ErrNotFound              = &Error{Kind: KindNotFound}
	ErrInvalidPagination     = &Error{Kind: KindInvalidPagination}
	ErrRepositoryUnavailable = &Error{Kind: KindRepositoryUnavailable}
)

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Err == nil
}

// KindOf returns the kind of the first *Error in err's chain, or "" when there is none.
func KindOf(err error) ErrorKind {
	var contentErr *Error
	if errors.As(err, &contentErr) {
		return contentErr.Kind
	}
	return ""
}

func unavailable(op string, err error) error {
	return &Error{Kind: KindRepositoryUnavailable, Op: op, Err: err}
}

func invalidPagination(op string, format string, args ...any) error {
	return &Error{Kind: KindInvalidPagination, Op: op, Err: fmt.Errorf(format, args...)}
}
