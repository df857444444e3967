package common

import (
	"errors"
	"fmt"
)

// ErrStructural matches every *StructuralError via errors.Is.
var ErrStructural = errors.New("malformed pdf structure")

// StructuralError reports a PDF that cannot be parsed far enough to be
// updated: a missing %%EOF, /Root or /Size, or an unresolvable object.
type StructuralError struct {
	Op  string
	Msg string
}

func (e *StructuralError) Error() string {
	if e.Op == "" {
		return e.Msg
	}
	return e.Op + ": " + e.Msg
}

func (e *StructuralError) Is(target error) bool {
	return target == ErrStructural
}

// Structuralf builds a *StructuralError with a formatted message.
func Structuralf(op, format string, args ...interface{}) error {
	return &StructuralError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// CapacityError is returned when a signature container does not fit the
// /Contents placeholder reserved for it. Sizes are in hex characters.
type CapacityError struct {
	Required  int
	Available int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("signature container requires %d hex characters but the placeholder holds %d", e.Required, e.Available)
}

// CryptoError wraps failures of the signing key or an unsupported algorithm.
type CryptoError struct {
	Msg string
	Err error
}

func (e *CryptoError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *CryptoError) Unwrap() error { return e.Err }

// IOError wraps a read or write failure on Path. The underlying error is
// available through errors.Unwrap.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
