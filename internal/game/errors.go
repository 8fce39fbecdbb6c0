package game

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a rejected operation. The transport layer maps
// kinds to status codes; the core only cares about meaning.
type ErrorKind string

const (
	KindInvalidPayload  ErrorKind = "invalid-payload"
	KindUnauthorized    ErrorKind = "unauthorized"
	KindForbidden       ErrorKind = "forbidden"
	KindNotFound        ErrorKind = "not-found"
	KindVersionConflict ErrorKind = "version-conflict"
	KindIllegalMove     ErrorKind = "illegal-move"
)

// Error is the typed failure returned from every rejected operation.
// CurrentVersion carries the game's state version where one exists so
// callers can refresh and retry.
type Error struct {
	Kind           ErrorKind `json:"kind"`
	Message        string    `json:"message"`
	Violations     []string  `json:"violations,omitempty"`
	CurrentVersion uint64    `json:"currentVersion,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if len(e.Violations) > 0 {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, strings.Join(e.Violations, "; "))
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// KindOf extracts the error kind from an error returned by the core.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

func forbidden(version uint64, format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...), CurrentVersion: version}
}

func notFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func versionConflict(current uint64) *Error {
	return &Error{
		Kind:           KindVersionConflict,
		Message:        fmt.Sprintf("expected version does not match current version %d", current),
		CurrentVersion: current,
	}
}

func illegalMove(version uint64, violations ...string) *Error {
	return &Error{
		Kind:           KindIllegalMove,
		Message:        "move rejected by the rules",
		Violations:     violations,
		CurrentVersion: version,
	}
}
