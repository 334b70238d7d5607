package paginate

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDocument indicates the engine has no open document.
	ErrNoDocument = errors.New("paginate: no document open")

	// ErrNotReady indicates a page turn was issued while a section is loading.
	ErrNotReady = errors.New("paginate: section not ready")

	// ErrBusy indicates another command is still awaiting its reply.
	ErrBusy = errors.New("paginate: command in flight")

	// ErrStaleReply indicates the document was closed or replaced while the
	// command was outstanding; the reply was discarded.
	ErrStaleReply = errors.New("paginate: reply for a closed document discarded")

	// ErrInvalidPosition indicates a position outside [0, 1].
	ErrInvalidPosition = errors.New("paginate: position out of range")

	// ErrInvalidScale indicates a non-positive scale factor.
	ErrInvalidScale = errors.New("paginate: scale must be positive")

	// ErrUnparseableReply indicates the surface answered with data the
	// engine cannot interpret.
	ErrUnparseableReply = errors.New("paginate: unparseable surface reply")
)

// SurfaceError reports a failed round trip to the rendering surface.
// The navigation state is left untouched when one is returned.
type SurfaceError struct {
	Op  string
	Err error
}

func (e *SurfaceError) Error() string {
	return fmt.Sprintf("paginate: surface %s: %v", e.Op, e.Err)
}

func (e *SurfaceError) Unwrap() error {
	return e.Err
}
