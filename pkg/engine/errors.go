package engine

import (
	"errors"
	"fmt"
)

// Kind classifies every error the engine can surface. The set is
// closed: callers switch on KindOf and handle each variant instead of
// probing error shapes.
type Kind int

const (
	// KindInternal covers collaborator/store failures and anything
	// not otherwise classified.
	KindInternal Kind = iota
	// KindValidation is bad input: missing fields, non-positive
	// quantity, an order date in the past.
	KindValidation
	// KindNotFound is a referenced order, item or product that does
	// not exist.
	KindNotFound
	// KindInsufficientStock is a requested quantity exceeding the
	// product's availability.
	KindInsufficientStock
	// KindConflict is a duplicate order id.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindInsufficientStock:
		return "insufficient_stock"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is the engine's error type. Message is safe to show to a
// client; Op names the failing operation for log correlation.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		return fmt.Sprintf("%s [op=%s, kind=%s]", msg, e.Op, e.Kind)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds a classified engine error.
func E(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Errf builds a classified engine error with a formatted message.
func Errf(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// wrap attaches op context to a store failure. Errors already carrying
// a kind pass through untouched so classification survives layering.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var engErr *Error
	if errors.As(err, &engErr) {
		return err
	}
	return &Error{Kind: KindInternal, Op: op, Message: "store operation failed", Err: err}
}

// KindOf extracts the classification from an error chain. Unclassified
// errors are internal.
func KindOf(err error) Kind {
	var engErr *Error
	if errors.As(err, &engErr) {
		return engErr.Kind
	}
	return KindInternal
}

// UserMessage returns the client-safe message for an error. Internal
// errors get a generic message so store details never leak.
func UserMessage(err error) string {
	var engErr *Error
	if errors.As(err, &engErr) && engErr.Kind != KindInternal && engErr.Message != "" {
		return engErr.Message
	}
	return "internal server error"
}

// IsNotFound reports whether err is classified as a missing reference.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsValidation reports whether err is classified as bad input.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// IsInsufficientStock reports whether err is a stock shortage.
func IsInsufficientStock(err error) bool {
	return KindOf(err) == KindInsufficientStock
}

// IsConflict reports whether err is a duplicate-identity conflict.
func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}
