package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a failure into one of the repository's error categories.
// Every infrastructure-level failure is rewrapped into one of these at the
// component boundary; nothing crosses upward as a raw driver error.
type Kind string

const (
	KindDuplicateRecord Kind = "DUPLICATE_RECORD"
	KindNotFound        Kind = "NOT_FOUND"
	KindInvalidState    Kind = "INVALID_STATE"
	KindInvalidInput    Kind = "INVALID_INPUT"
	KindStorageAccess   Kind = "STORAGE_ACCESS"
	KindDatabaseAccess  Kind = "DATABASE_ACCESS"
	KindShardResolution Kind = "SHARD_RESOLUTION"
)

// codes are the stable machine-readable codes surfaced to callers.
var codes = map[Kind]string{
	KindDuplicateRecord: "IDR-001",
	KindNotFound:        "IDR-002",
	KindInvalidState:    "IDR-003",
	KindInvalidInput:    "IDR-004",
	KindStorageAccess:   "IDR-005",
	KindDatabaseAccess:  "IDR-006",
	KindShardResolution: "IDR-007",
}

// Error is a tagged error carrying a taxonomy kind, a stable code and a
// human-readable message. The wrapped cause is kept for logs only and is
// never serialized to callers.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s [%s]: %s: %v", e.Kind, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a tagged error with no underlying cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Code: codes[kind], Message: message}
}

// Newf creates a tagged error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap tags an underlying cause with a taxonomy kind. A nil cause returns nil
// so call sites can wrap unconditionally.
func Wrap(kind Kind, message string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Code: codes[kind], Message: message, Err: err}
}

// KindOf returns the taxonomy kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is tagged with the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
