// Package vmerr defines the typed runtime errors the execution core can
// raise. The reference source this VM is modeled on aborts with a bare
// Rust panic on every one of these conditions; §7 of the design calls for
// elevating that to a typed error propagated up through execute and the
// call machinery instead, so a host can catch and report it without the
// process going down.
package vmerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a runtime abort into one of the categories a caller
// may want to branch on.
type Kind uint8

const (
	// KindType covers arithmetic/bitwise/compare/concat/len/table
	// operations on operands of incompatible type, including the operand
	// combinations that would need a metatable.
	KindType Kind = iota
	// KindRange covers a zero step in a numeric for loop.
	KindRange
	// KindMalformed covers indexing a non-table or calling a non-function.
	KindMalformed
	// KindUnimplemented marks an unimplemented feature. The dispatch loop
	// does not raise it: operands that would need a metatable raise
	// KindType.
	KindUnimplemented
)

func (k Kind) String() string {
	switch k {
	case KindType:
		return "TypeError"
	case KindRange:
		return "RangeError"
	case KindMalformed:
		return "MalformedState"
	case KindUnimplemented:
		return "Unimplemented"
	default:
		return "UnknownError"
	}
}

// RuntimeError is the error type returned by the dispatch loop and call
// machinery on any of the aborts in spec §7. It records only the program
// counter: the core has no source map of its own (that lives in the
// external compiler), so a source location is attached by a caller that
// has one, via internal/errors.LucoreError.
type RuntimeError struct {
	Kind    Kind
	Message string
	PC      int
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s (pc=%d)", e.Kind, e.Message, e.PC)
}

// New builds a RuntimeError of the given kind at the given program counter.
func New(kind Kind, pc int, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...), PC: pc}
}

// Typef is a convenience constructor for the most common abort, a type
// mismatch on an arithmetic/compare/table operand.
func Typef(pc int, format string, args ...interface{}) *RuntimeError {
	return New(KindType, pc, format, args...)
}

// Wrap attaches a stack-capturing cause to err, for aborts that originate
// outside the dispatch loop (a native function's own failure, e.g. a
// database driver error). The wrapped error prints its original stack
// trace when formatted with "%+v".
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, message)
}

// Cause unwraps a Wrap'd error back to its root cause.
func Cause(err error) error {
	return errors.Cause(err)
}
