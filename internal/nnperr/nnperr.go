// Package nnperr defines the diagnostic error kinds of spec.md §7:
// LexicalError, ParseError, NameError, SemanticError and RuntimeError.
// Each carries the offending source line/column so a single formatted
// diagnostic can be produced by the calling CLI. Neither the compiler
// nor the VM recovers from any of these — the first one aborts
// compilation/execution.
package nnperr

import (
	"errors"
	"fmt"
)

// Kind distinguishes the five diagnostic categories of spec.md §7.
type Kind string

const (
	Lexical  Kind = "lexical error"
	Parse    Kind = "parse error"
	Name     Kind = "name error"
	Semantic Kind = "semantic error"
	Runtime  Kind = "runtime error"
)

// Error is the single diagnostic type used across the compiler and VM.
// Line and Column are 1-based; both are 0 when the error has no
// meaningful source position (e.g. some runtime errors).
type Error struct {
	Kind    Kind
	Line    int
	Column  int
	Message string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s at line %d, column %d: %s", e.Kind, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New constructs a diagnostic of the given kind at the given position.
func New(kind Kind, line, column int, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Line: line, Column: column, Message: fmt.Sprintf(format, args...)}
}

// Lexicalf builds a LexicalError.
func Lexicalf(line, column int, format string, args ...interface{}) *Error {
	return New(Lexical, line, column, format, args...)
}

// Parsef builds a ParseError.
func Parsef(line, column int, format string, args ...interface{}) *Error {
	return New(Parse, line, column, format, args...)
}

// Namef builds a NameError.
func Namef(line, column int, format string, args ...interface{}) *Error {
	return New(Name, line, column, format, args...)
}

// Semanticf builds a SemanticError.
func Semanticf(line, column int, format string, args ...interface{}) *Error {
	return New(Semantic, line, column, format, args...)
}

// Runtimef builds a RuntimeError with no useful source position (the
// VM only sees instructions, not original source coordinates).
func Runtimef(format string, args ...interface{}) *Error {
	return New(Runtime, 0, 0, format, args...)
}

// ErrHalted is returned by vm.VM.Run when execution reaches finProg.
// It is not a failure: callers (cmd/nnp-exec) treat it as a clean exit,
// per spec.md §9's note that finProg must not call os.Exit from inside
// the VM.
var ErrHalted = errors.New("nnp: program halted")

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
