// Package diag classifies the non-fatal problems found while loading and
// composing documents. Diagnostics are reported and never change the
// generated output beyond omitting the offending item.
package diag

import (
	"errors"
	"fmt"
)

// Kind identifies the class of a diagnostic.
type Kind string

const (
	// KindMissingField marks a document without a required field (e.g. a guideline without an id).
	KindMissingField Kind = "missing-field"
	// KindUnresolvedReference marks a profile reference to an unknown guideline.
	KindUnresolvedReference Kind = "unresolved-reference"
	// KindMalformed marks a document whose metadata or body could not be parsed.
	KindMalformed Kind = "malformed"
	// KindDuplicate marks a guideline id defined by more than one file.
	KindDuplicate Kind = "duplicate"
	// KindIO marks a read or enumeration failure.
	KindIO Kind = "io"
)

// Error wraps an underlying error with a Kind and the source it concerns.
type Error struct {
	Kind   Kind
	Source string
	Err    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Err == nil && e.Source == "":
		return string(e.Kind)
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Source)
	case e.Source == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Source, e.Err)
}

// Unwrap lets errors.Is/As reach the underlying error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New returns an *Error of the given kind.
func New(kind Kind, source string, err error) error {
	return &Error{Kind: kind, Source: source, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// Diagnostic is a reported, non-fatal problem.
type Diagnostic struct {
	Kind    Kind
	Source  string // file path or identifier the diagnostic is about
	Message string
}

// String renders the diagnostic for humans.
func (d Diagnostic) String() string {
	if d.Source == "" {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Kind, d.Source, d.Message)
}

// FromError converts err into a Diagnostic. Errors without a Kind are
// classified as malformed.
func FromError(source string, err error) Diagnostic {
	d := Diagnostic{Kind: KindMalformed, Source: source, Message: err.Error()}
	var de *Error
	if errors.As(err, &de) {
		d.Kind = de.Kind
		if de.Source != "" {
			d.Source = de.Source
		}
		if de.Err != nil {
			d.Message = de.Err.Error()
		}
	}
	return d
}
