package load

import (
	"errors"
	"fmt"
)

// Kind classifies the fatal conditions a load can hit, so that callers can
// decide between aborting and retrying with a different window without
// parsing error strings.
type Kind int

const (
	// AllocationError means a field buffer could not be obtained. Nothing
	// was allocated.
	AllocationError Kind = iota
	// BlockReadError means a requested block was missing, truncated, or the
	// file was unreadable.
	BlockReadError
	// MassConsistencyError means the loaded per-particle masses were not
	// uniform within the species.
	MassConsistencyError
)

func (k Kind) String() string {
	switch k {
	case AllocationError:
		return "allocation failure"
	case BlockReadError:
		return "block read failure"
	case MassConsistencyError:
		return "mass consistency violation"
	}
	return fmt.Sprintf("unknown error kind %d", int(k))
}

// Error is the error type every fatal load condition is reported through.
// It wraps the underlying collaborator error, if any, so errors.Is() and
// errors.As() see through it.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func newError(kind Kind, err error, format string, a ...interface{}) *Error {
	return &Error{ kind, fmt.Sprintf(format, a...), err }
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Unwrap() error { return e.err }

// Kind returns the classification of the error.
func (e *Error) Kind() Kind { return e.kind }

// IsKind reports whether err is, or wraps, a load Error of the given Kind.
func IsKind(err error, kind Kind) bool {
	e := &Error{ }
	return errors.As(err, &e) && e.kind == kind
}
