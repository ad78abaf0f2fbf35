package storage

import (
	"github.com/pkg/errors"
)

// Error is the storage error kind: short reads, malformed headers, bad
// encoding bytes, unknown page types, and invalid serial types all
// surface as *Error. Callers classify with errors.As.
type Error struct {
	err error
}

func (e *Error) Error() string {
	return e.err.Error()
}

func (e *Error) Unwrap() error {
	return e.err
}

// Errorf creates a new storage error.
func Errorf(format string, args ...interface{}) error {
	return &Error{err: errors.Errorf(format, args...)}
}

// WrapErr annotates an underlying failure (typically I/O) and marks it
// as a storage error.
func WrapErr(err error, msg string) error {
	return &Error{err: errors.Wrap(err, msg)}
}

// WrapErrf is WrapErr with a format string.
func WrapErrf(err error, format string, args ...interface{}) error {
	return &Error{err: errors.Wrapf(err, format, args...)}
}
