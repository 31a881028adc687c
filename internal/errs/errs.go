// Package errs defines the small closed set of error kinds visible at
// core boundaries (spec §7): InvalidInput for malformed datasets raised
// during graph construction, and Internal for invariant violations. Both
// are wrapped with github.com/pkg/errors so callers retain a stack trace
// without the core needing its own wrapping convention.
package errs

import "github.com/pkg/errors"

// Kind is the closed set of core-visible error kinds. LoaderInProgress
// and NotFound are request-layer concerns (spec §7) and are not
// represented here: QE reports "not found" by returning an empty Path,
// never an error.
type Kind int

const (
	InvalidInput Kind = iota
	Internal
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "InvalidInput"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error is a core error carrying a Kind alongside the wrapped cause.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Invalid wraps msg as an InvalidInput error, formatted with args exactly
// like errors.Errorf.
func Invalid(format string, args ...interface{}) error {
	return &Error{Kind: InvalidInput, Err: errors.Errorf(format, args...)}
}

// Internalf wraps msg as an Internal error.
func Internalf(format string, args ...interface{}) error {
	return &Error{Kind: Internal, Err: errors.Errorf(format, args...)}
}

// Wrap attaches msg as context to err, preserving its Kind if err is
// already an *Error; otherwise it is wrapped as Internal, since an
// unrecognized error reaching a core boundary indicates a programming
// error, not a data problem.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	if ce, ok := err.(*Error); ok {
		return &Error{Kind: ce.Kind, Err: errors.Wrap(ce.Err, msg)}
	}
	return &Error{Kind: Internal, Err: errors.Wrap(err, msg)}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	ce, ok := err.(*Error)
	return ok && ce.Kind == kind
}
