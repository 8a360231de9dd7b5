package types

import (
	"fmt"
	"strings"
)

// =============================================================================
// ERROR TAXONOMY
// =============================================================================
// Callers match these with errors.As. None of them is fatal to the process.

// NotFoundError is returned when a catalog combination or a quote reference
// does not exist.
type NotFoundError struct {
	// What names the kind of thing looked up ("catalog entry", "quote").
	What string

	// Key is the lookup key as shown to the operator.
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.What, e.Key)
}

// ValidationError reports a required field that is missing or a numeric input
// out of range. It is raised before any ledger mutation.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string

	// Value is the offending value, as text.
	Value string

	// Rule is the rule that was violated ("required", "min", "range", ...).
	Rule string

	// Message is a human-readable error message.
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s (value: '%s')", e.Field, e.Message, e.Value)
}

// ValidationErrors groups the errors found on a single request.
type ValidationErrors []*ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the individual errors to errors.As.
func (errs ValidationErrors) Unwrap() []error {
	out := make([]error, len(errs))
	for i, e := range errs {
		out[i] = e
	}
	return out
}

// StorageCorruptionError describes a ledger row that could not be read.
// The store logs it and skips the row; it is never returned from a load.
type StorageCorruptionError struct {
	// Path is the ledger file.
	Path string

	// Line is the 1-indexed line of the record in the file, 0 if unknown.
	Line int

	// Reason explains why the row was discarded.
	Reason string
}

func (e *StorageCorruptionError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("corrupt ledger row at %s:%d: %s", e.Path, e.Line, e.Reason)
	}
	return fmt.Sprintf("corrupt ledger %s: %s", e.Path, e.Reason)
}

// InvalidReferenceError is returned when a reference is malformed or does not
// carry the prefix an operation requires.
type InvalidReferenceError struct {
	Reference string
	Reason    string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid reference %q: %s", e.Reference, e.Reason)
}
