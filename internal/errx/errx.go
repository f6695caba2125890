// Package errx classifies failures into the kinds the RPC surfaces understand.
package errx

import (
	"context"
	"errors"
	"fmt"
)

type Kind uint8

const (
	Unknown Kind = iota
	// Invalid marks rejected input.
	Invalid
	NotFound
	// Gone marks a record that exists but has expired.
	Gone
	// Unavailable marks a dependency that could not be reached. Callers may retry.
	Unavailable
	Cancelled
	Internal
)

type Error struct {
	Op   string
	Kind Kind
	Err  error
}

// E wraps err with an operation name and kind. A nil err yields nil.
func E(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}

	return &Error{
		Op:   op,
		Kind: kind,
		Err:  err,
	}
}

func (k Kind) String() string {
	switch k {
	case Unknown:
		return "Unknown"
	case Invalid:
		return "Invalid"
	case NotFound:
		return "NotFound"
	case Gone:
		return "Gone"
	case Unavailable:
		return "Unavailable"
	case Cancelled:
		return "Cancelled"
	case Internal:
		return "Internal"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op
	}

	if e.Op == "" {
		return e.Err.Error()
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the outermost *Error in the chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return Unknown
}

func OpOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}

	return ""
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Propagate re-wraps err under op, keeping its kind. Only the caller's own
// cancellation becomes Cancelled; a deadline inside a dependency keeps the
// kind the dependency gave it. Unclassified errors become fallback.
func Propagate(ctx context.Context, op string, err error, fallback Kind) error {
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		return E(op, Cancelled, err)
	}

	kind := KindOf(err)
	if kind == Unknown {
		kind = fallback
	}

	return E(op, kind, err)
}
