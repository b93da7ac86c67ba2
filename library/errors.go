package library

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

// Error codes surfaced by the catalog, the ledger and the lending workflow.
const (
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidation      Code = "VALIDATION"
	CodeLimitExceeded   Code = "LIMIT_EXCEEDED"
	CodeUnavailable     Code = "UNAVAILABLE"
	CodeNothingToReturn Code = "NOTHING_TO_RETURN"
	CodeAlreadyExists   Code = "ALREADY_EXISTS"
)

// Error is a domain error with a code, a message and optional details.
type Error struct {
	Code    Code
	Message string
	Details any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error carrying the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details, cause: e.cause}
}

// WithCause returns a copy of e wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, cause: err}
}

// Sentinels for errors.Is.
var (
	ErrNotFound        = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation      = &Error{Code: CodeValidation, Message: "validation error"}
	ErrLimitExceeded   = &Error{Code: CodeLimitExceeded, Message: "borrowing limit reached"}
	ErrUnavailable     = &Error{Code: CodeUnavailable, Message: "no copies available"}
	ErrNothingToReturn = &Error{Code: CodeNothingToReturn, Message: "nothing to return"}
	ErrAlreadyExists   = &Error{Code: CodeAlreadyExists, Message: "already exists"}
)

// NotFound creates a not found error.
func NotFound(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error carrying per-field messages.
func ValidationWithDetails(msg string, fields map[string]string) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: fields}
}

// Unavailable creates an error for a book without copies left.
func Unavailable(title string) *Error {
	return &Error{Code: CodeUnavailable, Message: fmt.Sprintf("no copies available for %q", title)}
}

// AlreadyExists creates an already exists error.
func AlreadyExists(format string, args ...any) *Error {
	return &Error{Code: CodeAlreadyExists, Message: fmt.Sprintf(format, args...)}
}

// LimitExceeded creates the borrowing-limit error. active lists the loans
// still open for the borrower.
func LimitExceeded(requested int, active []LoanEntry) *Error {
	return &Error{
		Code: CodeLimitExceeded,
		Message: fmt.Sprintf("cannot borrow %d book(s): limit of %d reached (%d currently borrowed)",
			requested, BorrowLimit, len(active)),
		Details: active,
	}
}

// ActiveLoansOf extracts the active loans listed by a limit error.
func ActiveLoansOf(err error) []LoanEntry {
	var e *Error
	if errors.As(err, &e) {
		if loans, ok := e.Details.([]LoanEntry); ok {
			return loans
		}
	}
	return nil
}

// FieldErrors extracts the per-field messages of a validation error.
func FieldErrors(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		if fields, ok := e.Details.(map[string]string); ok {
			return fields
		}
	}
	return nil
}
