package backend

import (
	"fmt"
	"sync/atomic"

	"periph.io/x/conn/v3/gpio"

	"github.com/coreman2200/clockless/internal/codec"
	"github.com/coreman2200/clockless/internal/dither"
	"github.com/coreman2200/clockless/internal/timing"
)

// BitBang drives the data line directly from the CPU with busy-waited
// pulse widths. Once a transmission starts it cannot be cancelled; an
// abandoned frame leaves the wire in an undefined state until a fresh
// reset pulse.
type BitBang struct {
	pin  gpio.PinIO
	dith *dither.Ditherer
	busy int32
}

// NewBitBang wraps an output-capable pin.
func NewBitBang(pin gpio.PinIO) *BitBang {
	return &BitBang{pin: pin}
}

// WithDitherer enables inline temporal dithering for TransmitBytes.
func (b *BitBang) WithDitherer(d *dither.Ditherer) *BitBang {
	b.dith = d
	return b
}

func (b *BitBang) Name() string  { return "bitbang" }
func (b *BitBang) Priority() int { return 10 }

// Transmit bit-bangs a pre-encoded symbol stream.
func (b *BitBang) Transmit(syms []codec.Symbol) error {
	if !atomic.CompareAndSwapInt32(&b.busy, 0, 1) {
		return ErrBusy
	}
	defer atomic.StoreInt32(&b.busy, 0)

	cs := enterCritical()
	defer cs.exit()
	return b.emit(syms)
}

// TransmitBytes dithers and encodes byte by byte right before emission,
// skipping the whole-frame symbol buffer. This backend already owns the
// hot loop, so folding the dither step in here costs nothing extra; the
// per-(led,channel) accumulator semantics are unchanged.
func (b *BitBang) TransmitBytes(data []byte, spec timing.Spec) error {
	if !atomic.CompareAndSwapInt32(&b.busy, 0, 1) {
		return ErrBusy
	}
	defer atomic.StoreInt32(&b.busy, 0)

	channels := 3
	if b.dith != nil {
		channels = b.dith.Channels()
	}

	cs := enterCritical()
	defer cs.exit()
	for i, v := range data {
		if b.dith != nil {
			v = b.dith.Dither(i/channels, i%channels, v)
		}
		// Table lookup happens here, outside the timed pulse region.
		syms := codec.EncodeByte(v, spec)
		if err := b.emit(syms[:]); err != nil {
			return err
		}
	}
	latch := codec.ResetSymbol(spec)
	return b.emit([]codec.Symbol{latch})
}

func (b *BitBang) emit(syms []codec.Symbol) error {
	for _, s := range syms {
		if s.High > 0 {
			if err := b.pin.Out(gpio.High); err != nil {
				return fmt.Errorf("bitbang: pin high: %w", err)
			}
			spin(s.High)
		}
		if err := b.pin.Out(gpio.Low); err != nil {
			return fmt.Errorf("bitbang: pin low: %w", err)
		}
		spin(s.Low)
	}
	return nil
}

// Wait is immediate; bit-banging is synchronous.
func (b *BitBang) Wait() error { return nil }

var _ Backend = &BitBang{}
