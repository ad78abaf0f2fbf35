// Package sqlerr defines the SQL error kind shared by the lexer, the
// parser, and the query evaluator: lexical errors (bad token,
// unterminated quote), syntactic errors (unexpected token, missing
// clause), and semantic errors (unknown table, index covering the
// wrong column, unsupported statement).
package sqlerr

import (
	"github.com/pkg/errors"
)

// Error is the SQL error kind. Callers classify with errors.As.
type Error struct {
	err error
}

func (e *Error) Error() string {
	return e.err.Error()
}

func (e *Error) Unwrap() error {
	return e.err
}

// New creates a SQL error from a format string.
func New(format string, args ...interface{}) error {
	return &Error{err: errors.Errorf(format, args...)}
}
