// Package errors provides the tagged error taxonomy the solve pipeline
// returns instead of unwinding across components.
package errors

import (
	"errors"
	"fmt"
)

// Kind identifies which of the error surface's fixed categories an Error
// belongs to.
type Kind string

const (
	KindInfeasibleBlock     Kind = "INFEASIBLE_BLOCK"
	KindDayInfeasible       Kind = "DAY_INFEASIBLE"
	KindUnknownReference    Kind = "UNKNOWN_REFERENCE"
	KindSolverTimeout       Kind = "SOLVER_TIMEOUT"
	KindInvalidConfiguration Kind = "INVALID_CONFIGURATION"
	KindInternal            Kind = "INTERNAL"
)

// Error is a typed, value-carrying error.
type Error struct {
	Kind    Kind
	Message string
	Err     error

	// Structured payload, populated depending on Kind.
	BlockIndex int    // KindInfeasibleBlock
	Day        int    // KindDayInfeasible, KindSolverTimeout
	Rule       string // KindUnknownReference
	Reference  string // KindUnknownReference
	Field      string // KindInvalidConfiguration
	Reason     string // KindInvalidConfiguration
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, KindInternal, "internal solver error")
}

// InfeasibleBlock reports that a block's required hours cannot be
// distributed within its availability mask and the cap of 2 per day.
func InfeasibleBlock(blockIndex int) *Error {
	return &Error{
		Kind:       KindInfeasibleBlock,
		Message:    fmt.Sprintf("block %d has more required hours than its availability allows", blockIndex),
		BlockIndex: blockIndex,
	}
}

// DayInfeasible reports that C6 could not find any feasible placement for
// a day's chromosome column.
func DayInfeasible(day int) *Error {
	return &Error{
		Kind:    KindDayInfeasible,
		Message: fmt.Sprintf("day %d has no feasible placement of its blocks", day),
		Day:     day,
	}
}

// UnknownReference reports that a rule refers to an identifier absent
// from the requirement set.
func UnknownReference(rule, reference string) *Error {
	return &Error{
		Kind:      KindUnknownReference,
		Message:   fmt.Sprintf("rule %q references unknown identifier %q", rule, reference),
		Rule:      rule,
		Reference: reference,
	}
}

// SolverTimeout reports that C6 downgraded to the best feasible solution
// found within the wall-clock budget for a day.
func SolverTimeout(day int) *Error {
	return &Error{
		Kind:    KindSolverTimeout,
		Message: fmt.Sprintf("day %d solver hit its time budget, returning best feasible solution", day),
		Day:     day,
	}
}

// InvalidConfiguration reports a configuration field that failed
// validation before any generation ran.
func InvalidConfiguration(field, reason string) *Error {
	return &Error{
		Kind:    KindInvalidConfiguration,
		Message: fmt.Sprintf("invalid configuration field %q: %s", field, reason),
		Field:   field,
		Reason:  reason,
	}
}
