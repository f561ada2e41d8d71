// Package errors renders a *vmerr.RuntimeError for a human: a CLI or
// REPL surfacing an abort from the execution core wants a source
// location and a call-stack snapshot, neither of which vmerr.RuntimeError
// itself carries (the core has no source map of its own — spec §7/§9).
// This is the boundary where that context is attached, grounded on the
// teacher's own internal/errors/errors.go SentraError pattern, renamed
// and narrowed to the four abort kinds spec §7 actually defines.
package errors

import (
	"fmt"
	"strings"

	"lucore/internal/vmerr"
)

// Kind mirrors vmerr.Kind's four abort categories, kept as a distinct
// type here because this package also needs a kind meaning "not a
// runtime abort at all" (UsageError, for a usage error from the CLI itself).
type Kind string

const (
	TypeError      Kind = "TypeError"
	RangeError     Kind = "RangeError"
	MalformedState Kind = "MalformedState"
	Unimplemented  Kind = "Unimplemented"
	UsageError     Kind = "UsageError"
)

// SourceLocation is a location in the program that produced the proto the
// core executed. The core only ever knows a program counter; a location
// is filled in by a caller that still has the external compiler's source
// map (out of scope for this repo, per spec §1 — left nil-valued here).
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// StackFrame is one entry of a call-stack snapshot.
type StackFrame struct {
	Function string
	PC       int
}

// LucoreError is the presentation-layer error a CLI prints and exits
// non-zero on. It wraps a *vmerr.RuntimeError rather than replacing it —
// the core still returns the typed vmerr error through execute/Call;
// this is only ever constructed at the boundary where a panic-turned-
// error is about to be shown to a user (spec §7 REDESIGN FLAG).
type LucoreError struct {
	Kind      Kind
	Message   string
	Location  SourceLocation
	CallStack []StackFrame
	cause     error
}

func (e *LucoreError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s: %s\n", e.Kind, e.Message))
	if e.Location.File != "" {
		sb.WriteString(fmt.Sprintf("  at %s:%d:%d\n", e.Location.File, e.Location.Line, e.Location.Column))
	}
	for _, frame := range e.CallStack {
		if frame.Function != "" {
			sb.WriteString(fmt.Sprintf("  in %s (pc=%d)\n", frame.Function, frame.PC))
		} else {
			sb.WriteString(fmt.Sprintf("  at pc=%d\n", frame.PC))
		}
	}
	return sb.String()
}

// Unwrap lets errors.Is/errors.As (stdlib or pkg/errors) reach the
// original *vmerr.RuntimeError.
func (e *LucoreError) Unwrap() error { return e.cause }

// FromRuntime converts a *vmerr.RuntimeError into a displayable
// LucoreError with no stack or source context yet attached.
func FromRuntime(err *vmerr.RuntimeError) *LucoreError {
	return &LucoreError{
		Kind:    Kind(err.Kind.String()),
		Message: err.Message,
		cause:   err,
	}
}

// Usagef builds a LucoreError for a CLI-level usage mistake (bad flags,
// missing file) that never touched the execution core at all.
func Usagef(format string, args ...interface{}) *LucoreError {
	return &LucoreError{Kind: UsageError, Message: fmt.Sprintf(format, args...)}
}

// WithSource attaches a source location, when the caller has one.
func (e *LucoreError) WithSource(loc SourceLocation) *LucoreError {
	e.Location = loc
	return e
}

// WithStack attaches a call-stack snapshot.
func (e *LucoreError) WithStack(stack []StackFrame) *LucoreError {
	e.CallStack = stack
	return e
}
