package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/edc/internal/journal"
)

// HandlerError describes a fault inside a domain handler.
//
// The engine never returns it as a failure: the record is treated as
// handled, the error is logged, and it is attached to the Result so callers
// and tests can see that folding stopped early. Session state keeps
// whatever the handler changed before the fault.
type HandlerError struct {
	// Kind is the record's event discriminator.
	Kind journal.Kind

	// Handler names the domain handler that faulted.
	Handler string

	// Seq is the record's sequence number.
	Seq int64

	// Err is the underlying fault (a recovered panic is wrapped as an error).
	Err error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %s faulted on %s (seq=%d): %v", e.Handler, e.Kind, e.Seq, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// IsHandlerError reports whether err is, or wraps, a HandlerError.
func IsHandlerError(err error) bool {
	var he *HandlerError
	return errors.As(err, &he)
}

// errPanic wraps a recovered panic value.
type errPanic struct {
	value any
}

func (e errPanic) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}
