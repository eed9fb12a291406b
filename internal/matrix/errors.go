package matrix

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKey is returned by Resolve for a shorthand the matrix does
// not define.
var ErrUnknownKey = errors.New("unknown matrix key")

// ErrorKind classifies a matrix load failure.
type ErrorKind string

const (
	CycleDetected      ErrorKind = "cycle_detected"
	UndefinedReference ErrorKind = "undefined_reference"
	Malformed          ErrorKind = "malformed"
)

// Error is returned by Load and Parse.
type Error struct {
	Kind ErrorKind
	// Key is the entry the problem was found in.
	Key string
	// Path is the reference chain for CycleDetected, starting and ending
	// with the same key.
	Path []string
	// Detail carries the underlying reason for Malformed and
	// UndefinedReference.
	Detail string
}

func (e *Error) Error() string {
	switch e.Kind {
	case CycleDetected:
		return fmt.Sprintf("matrix %s: %s", e.Kind, strings.Join(e.Path, " → "))
	case UndefinedReference:
		return fmt.Sprintf("matrix %s: %s references %s", e.Kind, e.Key, e.Detail)
	default:
		if e.Key != "" {
			return fmt.Sprintf("matrix %s: %s: %s", e.Kind, e.Key, e.Detail)
		}
		return fmt.Sprintf("matrix %s: %s", e.Kind, e.Detail)
	}
}
