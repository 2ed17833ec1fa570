// Package backend implements the interchangeable transmission paths a
// logical LED channel can drive: cycle-counted bit-banging, stream
// peripherals, SPI NRZ expansion, and same-port parallel lanes.
package backend

import (
	"errors"

	"github.com/coreman2200/clockless/internal/codec"
)

// Errors every backend can surface from Transmit. Neither is retried
// automatically: retrying a half-sent clockless frame risks the strip
// latching garbage as a valid frame.
var (
	ErrBusy        = errors.New("backend: transmitter busy")
	ErrUnavailable = errors.New("backend: hardware unavailable")
)

// Backend is one transmission path for an encoded symbol stream.
//
// Transmit emits symbols strictly in stream order. For hardware
// peripherals it returns once the stream has been accepted, not once it
// has physically left the pin; Wait blocks until transmission completes
// and must be called before the symbol source is reused. Synchronous
// backends return from Wait immediately.
type Backend interface {
	Name() string
	Priority() int
	Transmit(syms []codec.Symbol) error
	Wait() error
}
