// Package errs defines the error taxonomy shared by every macrohook package.
//
// All failures surfaced to callers are *Error values carrying a Kind. The
// exported sentinels match any *Error of the same kind through errors.Is, so
// callers never need to type-assert:
//
//	if errors.Is(err, errs.ErrInvalidArgument) { ... }
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindPreconditionNotMet
	KindUnmappableCharacter
	KindBackend
	KindClosed
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindPreconditionNotMet:
		return "precondition not met"
	case KindUnmappableCharacter:
		return "unmappable character"
	case KindBackend:
		return "backend error"
	case KindClosed:
		return "closed"
	default:
		return "unknown error"
	}
}

// Error is the single canonical error type.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind, which makes the package
// sentinels usable with errors.Is regardless of Detail.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrInvalidArgument     = &Error{Kind: KindInvalidArgument}
	ErrPreconditionNotMet  = &Error{Kind: KindPreconditionNotMet}
	ErrUnmappableCharacter = &Error{Kind: KindUnmappableCharacter}
	ErrBackend             = &Error{Kind: KindBackend}
	ErrClosed              = &Error{Kind: KindClosed}
)

// Factory helpers returning *Error.
func InvalidArgument(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidArgument, Detail: fmt.Sprintf(format, args...)}
}
func PreconditionNotMet(format string, args ...any) *Error {
	return &Error{Kind: KindPreconditionNotMet, Detail: fmt.Sprintf(format, args...)}
}
func Unmappable(r rune) *Error {
	return &Error{Kind: KindUnmappableCharacter, Detail: fmt.Sprintf("%q (U+%04X)", r, r)}
}
func Closed(what string) *Error {
	return &Error{Kind: KindClosed, Detail: what}
}

// Backend wraps a platform failure. It returns nil for a nil err so it can
// wrap call results directly.
func Backend(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) && e.Kind == KindBackend {
		return err
	}
	return &Error{Kind: KindBackend, Detail: op, Err: err}
}

// KindOf reports the Kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
