// Package grimerr defines GRIMOIRE's typed error kinds (spec.md §7):
// load-time errors (NotFound, Parse, Validation) and run-time errors
// (Template, Dice, LLM, Table, Choice, Flow, Cancelled), plus the
// ValidationError aggregator the loader uses to
// collect every problem before failing instead of stopping at the
// first one.
package grimerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies the category of a GRIMOIRE error, independent of its
// message text, so callers (the CLI, tests) can branch on it with
// errors.As/Is rather than string matching.
type Kind string

const (
	// Load-time kinds (system loading, spec.md §4.1/§4.2).
	KindNotFound   Kind = "load.not_found"
	KindParse      Kind = "load.parse"
	KindValidation Kind = "load.validation"

	// Run-time kinds (flow execution, spec.md §4.5-4.7).
	KindTemplate  Kind = "runtime.template"
	KindDice      Kind = "runtime.dice"
	KindLLM       Kind = "runtime.llm"
	KindTable     Kind = "runtime.table"
	KindChoice    Kind = "runtime.choice"
	KindFlow      Kind = "runtime.flow"
	KindCancelled Kind = "runtime.cancelled"
)

// Error is a GRIMOIRE error carrying a Kind alongside the usual
// message/wrapped-cause pair.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is a *Error with the same Kind, so
// errors.Is(err, grimerr.New(KindNotFound, "", nil)) works as a kind
// check.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// New constructs an *Error of the given kind.
func New(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// Wrap is a convenience for New(kind, "", cause) style wrapping when
// the cause's own message already says enough.
func Wrap(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

// ValidationError collects every validation failure discovered during
// a single load or flow-definition check instead of stopping at the
// first one, so a system author sees the whole list in one pass.
type ValidationError struct {
	Errors []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(ve.Errors, "\n  - "))
}

// Add records a new validation failure.
func (ve *ValidationError) Add(msg string, args ...any) {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	ve.Errors = append(ve.Errors, msg)
}

// HasErrors reports whether any failure has been recorded.
func (ve *ValidationError) HasErrors() bool {
	return len(ve.Errors) > 0
}

// AsError returns ve as an error if it has any recorded failures,
// wrapped as KindValidation, or nil otherwise.
func (ve *ValidationError) AsError() error {
	if !ve.HasErrors() {
		return nil
	}
	return New(KindValidation, ve.Error(), nil)
}
