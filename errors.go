package fizz

import "fmt"

// ErrorKind classifies every error the interpreter can surface to the
// host. It is a flat taxonomy by design: the VM does not recover
// locally and does not retry, so callers only ever need to branch on
// the kind, not on a type hierarchy.
type ErrorKind int

const (
	// SyntaxError covers malformed tokens, unbalanced parens, keyword
	// misuse, and define/import appearing outside module top level.
	SyntaxError ErrorKind = iota
	TypeError
	ArityError
	RuntimeError
	SymbolNotFound
	FileError
	OutOfMemory
)

func (k ErrorKind) String() string {
	switch k {
	case SyntaxError:
		return "SyntaxError"
	case TypeError:
		return "TypeError"
	case ArityError:
		return "ArityError"
	case RuntimeError:
		return "RuntimeError"
	case SymbolNotFound:
		return "SymbolNotFound"
	case FileError:
		return "FileError"
	case OutOfMemory:
		return "OutOfMemory"
	default:
		return "UnknownError"
	}
}

// Error is the single error type returned across the public API and
// from every native function. It carries a Kind for host-side
// dispatch, a human Message, and an optional Span for errors produced
// while scanning, parsing, or compiling source text.
type Error struct {
	Kind    ErrorKind
	Message string
	Span    Span
}

func (e *Error) Error() string {
	if (e.Span != Span{}) {
		return fmt.Sprintf("%s: %s @ %s", e.Kind, e.Message, e.Span)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newErr(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func newErrAt(kind ErrorKind, span Span, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Span: span}
}

// Is allows errors.Is to match by kind alone: any *Error target with
// the same Kind matches, e.g.
// errors.Is(err, &fizz.Error{Kind: fizz.SymbolNotFound}).
func (e *Error) Is(target error) bool {
	if k, ok := target.(*Error); ok {
		return e.Kind == k.Kind
	}
	return false
}

// KindOf extracts the ErrorKind carried by err, defaulting to
// RuntimeError for any error that is not itself an *Error (e.g. one
// made with errors.New).
func KindOf(err error) ErrorKind {
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return RuntimeError
}
