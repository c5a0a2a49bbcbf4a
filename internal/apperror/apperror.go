// Package apperror defines the error kinds surfaced to API callers.
package apperror

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindExpired
	KindInvalidToken
	KindInactiveAccount
	KindForbidden
	KindNotFound
	KindAssetMissing
	KindInvalidFormat
	KindInvalidInput
	KindTooLarge
	KindRateLimited
	KindConflict
	KindStorage
)

var kindNames = map[Kind]string{
	KindInternal:        "internal",
	KindUnauthenticated: "unauthenticated",
	KindExpired:         "expired",
	KindInvalidToken:    "invalid_token",
	KindInactiveAccount: "inactive_account",
	KindForbidden:       "forbidden",
	KindNotFound:        "not_found",
	KindAssetMissing:    "asset_missing",
	KindInvalidFormat:   "invalid_format",
	KindInvalidInput:    "invalid_input",
	KindTooLarge:        "too_large",
	KindRateLimited:     "rate_limited",
	KindConflict:        "conflict",
	KindStorage:         "storage_error",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Error carries a Kind and a caller-facing message. Err is the underlying
// cause and is never shown to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so errors.Is(err, ErrNotFound) works
// for every not-found error regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-facing message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}

var (
	ErrUnauthenticated = New(KindUnauthenticated, "Could not validate credentials")
	ErrExpired         = New(KindExpired, "Token has expired")
	ErrInvalidToken    = New(KindInvalidToken, "Invalid token")
	ErrInactiveAccount = New(KindInactiveAccount, "Inactive user")
	ErrForbidden       = New(KindForbidden, "Not authorized")
	ErrNotFound        = New(KindNotFound, "Not found")
	ErrAssetMissing    = New(KindAssetMissing, "PDF file not found on server")
	ErrInvalidFormat   = New(KindInvalidFormat, "Invalid PDF file format")
	ErrTooLarge        = New(KindTooLarge, "File too large")
	ErrRateLimited     = New(KindRateLimited, "Too many requests")
	ErrConflict        = New(KindConflict, "Already exists")
	ErrStorage         = New(KindStorage, "Storage error")
)
