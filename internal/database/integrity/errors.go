// Package integrity defines the typed errors returned by the data layer and
// translates low-level store failures into them.
//
// Callers branch on the error kind only:
//
//	book, err := booksRepo.Create(ctx, draft)
//	switch integrity.KindOf(err) {
//	case integrity.KindDuplicateKey:
//	    // ISBN already used
//	case integrity.KindValidation:
//	    // show the message next to the form
//	}
//
// or with errors.Is against the sentinels:
//
//	if errors.Is(err, integrity.ErrBookUnavailable) { ... }
package integrity

import (
	"errors"
	"fmt"
)

// Kind classifies a data layer failure.
type Kind string

const (
	KindNotFound              Kind = "NOT_FOUND"
	KindDuplicateKey          Kind = "DUPLICATE_KEY"
	KindReferentialConstraint Kind = "REFERENTIAL_CONSTRAINT"
	KindValidation            Kind = "VALIDATION"
	KindBookUnavailable       Kind = "BOOK_UNAVAILABLE"
	KindAlreadyReturned       Kind = "ALREADY_RETURNED"
	KindTransientIO           Kind = "TRANSIENT_IO"
	KindUnknown               Kind = "UNKNOWN"
)

// Error is a typed data layer error.
type Error struct {
	Kind    Kind
	Message string
	// Constraint names the violated index, column or constraint when the
	// store reports one.
	Constraint string
	// Fields carries per-field messages for validation failures.
	Fields map[string]string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error with the same Kind, so the sentinels below work with
// errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// WithCause returns a copy of e wrapping err.
func (e *Error) WithCause(err error) *Error {
	cp := *e
	cp.cause = err
	return &cp
}

// Sentinels for errors.Is.
var (
	ErrNotFound              = &Error{Kind: KindNotFound, Message: "not found"}
	ErrDuplicateKey          = &Error{Kind: KindDuplicateKey, Message: "duplicate key"}
	ErrReferentialConstraint = &Error{Kind: KindReferentialConstraint, Message: "referenced by other records"}
	ErrValidation            = &Error{Kind: KindValidation, Message: "validation error"}
	ErrBookUnavailable       = &Error{Kind: KindBookUnavailable, Message: "book is currently on loan"}
	ErrAlreadyReturned       = &Error{Kind: KindAlreadyReturned, Message: "transaction already returned"}
	ErrTransientIO           = &Error{Kind: KindTransientIO, Message: "store temporarily unavailable"}
	ErrUnknown               = &Error{Kind: KindUnknown, Message: "unexpected store error"}
)

// NotFoundf creates a not found error with a formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// DuplicateKeyf creates a duplicate key error with a formatted message.
func DuplicateKeyf(format string, args ...any) *Error {
	return &Error{Kind: KindDuplicateKey, Message: fmt.Sprintf(format, args...)}
}

// ReferentialConstraintf creates a referential constraint error with a formatted message.
func ReferentialConstraintf(format string, args ...any) *Error {
	return &Error{Kind: KindReferentialConstraint, Message: fmt.Sprintf(format, args...)}
}

// Validationf creates a validation error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationFields creates a validation error carrying per-field messages.
func ValidationFields(msg string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

// BookUnavailablef creates a book unavailable error with a formatted message.
func BookUnavailablef(format string, args ...any) *Error {
	return &Error{Kind: KindBookUnavailable, Message: fmt.Sprintf(format, args...)}
}

// AlreadyReturnedf creates an already returned error with a formatted message.
func AlreadyReturnedf(format string, args ...any) *Error {
	return &Error{Kind: KindAlreadyReturned, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, KindUnknown for untyped errors and "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
