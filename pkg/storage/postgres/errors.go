package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/medatechnology/goutil/medaerror"
)

// PostgreSQL error codes this store distinguishes.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	ErrCodeUniqueViolation     = "23505"
	ErrCodeForeignKeyViolation = "23503"
	ErrCodeCheckViolation      = "23514"
)

// Store-level errors using medaerror
var (
	ErrNotConnected     medaerror.MedaError = medaerror.MedaError{Message: "PostgreSQL database is not connected"}
	ErrConnectionFailed medaerror.MedaError = medaerror.MedaError{Message: "failed to connect to PostgreSQL database"}
	ErrInvalidConfig    medaerror.MedaError = medaerror.MedaError{Message: "invalid PostgreSQL configuration"}
)

// StoreError wraps a PostgreSQL error with the operation and table that
// produced it.
type StoreError struct {
	Operation string // The operation that failed (e.g., "INSERT", "SELECT", "UPDATE")
	Table     string // The table involved (if applicable)
	Code      string // PostgreSQL error code
	Message   string // Error message
	Detail    string // Detailed error information
	Err       error  // Original error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	var parts []string
	if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("operation=%s", e.Operation))
	}
	if e.Table != "" {
		parts = append(parts, fmt.Sprintf("table=%s", e.Table))
	}
	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("code=%s", e.Code))
	}
	msg := e.Message
	if len(parts) > 0 {
		msg = fmt.Sprintf("%s [%s]", msg, strings.Join(parts, ", "))
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s - Detail: %s", msg, e.Detail)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// wrapError wraps a PostgreSQL error with operation context, pulling the
// server error code and detail out when lib/pq provides them.
func wrapError(err error, operation, table string) error {
	if err == nil {
		return nil
	}
	se := &StoreError{
		Operation: operation,
		Table:     table,
		Message:   err.Error(),
		Err:       err,
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		se.Code = string(pqErr.Code)
		se.Message = pqErr.Message
		se.Detail = pqErr.Detail
	}
	return se
}

// IsUniqueViolation checks if the error is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return hasErrorCode(err, ErrCodeUniqueViolation)
}

// IsForeignKeyViolation checks if the error is a foreign key constraint violation.
func IsForeignKeyViolation(err error) bool {
	return hasErrorCode(err, ErrCodeForeignKeyViolation)
}

// IsCheckViolation checks if the error is a CHECK constraint violation.
func IsCheckViolation(err error) bool {
	return hasErrorCode(err, ErrCodeCheckViolation)
}

func hasErrorCode(err error, code string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == code
	}
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}
