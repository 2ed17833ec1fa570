package backend

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/coreman2200/clockless/internal/codec"
	"github.com/coreman2200/clockless/internal/timing"
)

// Port is a bank of up to 32 output pins that can be written in one
// atomic operation. A single WriteSlot call reflects every lane's level
// for that time slot; partial application is impossible by contract.
type Port interface {
	Width() int
	WriteSlot(levels uint32, d time.Duration) error
}

// Parallel drives N bit-rate-identical lanes off one port. Every bit
// period is three composite writes: all lanes rise together, the
// zero-bit lanes drop at T0H, and everything drops at T1H. That
// structure is what rules out inter-lane tearing.
type Parallel struct {
	port  Port
	lanes int
	spec  timing.Spec
	busy  int32
}

// NewParallel builds a backend over port using lanes of its pins.
func NewParallel(port Port, lanes int, spec timing.Spec) (*Parallel, error) {
	if lanes < 1 || lanes > 32 || lanes > port.Width() {
		return nil, fmt.Errorf("parallel: lane count %d out of range for %d-wide port", lanes, port.Width())
	}
	return &Parallel{port: port, lanes: lanes, spec: spec}, nil
}

func (p *Parallel) Name() string  { return fmt.Sprintf("parallel%d", p.lanes) }
func (p *Parallel) Priority() int { return 50 }
func (p *Parallel) Lanes() int    { return p.lanes }

// Transmit replicates one stream across every lane.
func (p *Parallel) Transmit(syms []codec.Symbol) error {
	lanes := make([][]codec.Symbol, p.lanes)
	for i := range lanes {
		lanes[i] = syms
	}
	return p.TransmitLanes(lanes)
}

// TransmitLanes emits independent per-lane streams. Shorter lanes are
// padded with trailing Zero bits (off pixels) so every lane spans the
// same slot count.
func (p *Parallel) TransmitLanes(lanes [][]codec.Symbol) error {
	if len(lanes) == 0 || len(lanes) > p.lanes {
		return fmt.Errorf("parallel: got %d lanes, configured for %d", len(lanes), p.lanes)
	}
	if !atomic.CompareAndSwapInt32(&p.busy, 0, 1) {
		return ErrBusy
	}
	defer atomic.StoreInt32(&p.busy, 0)

	bits := make([][]bool, len(lanes))
	maxLen := 0
	for i, syms := range lanes {
		lb, err := laneBits(syms, p.spec)
		if err != nil {
			return fmt.Errorf("parallel: lane %d: %w", i, err)
		}
		bits[i] = lb
		if len(lb) > maxLen {
			maxLen = len(lb)
		}
	}

	t0h := p.spec.Bit0High.Mid()
	t1h := p.spec.Bit1High.Mid()
	period := p.spec.BitPeriod()
	allMask := uint32(1)<<uint(p.lanes) - 1

	for slot := 0; slot < maxLen; slot++ {
		var word uint32
		for lane := range bits {
			if slot < len(bits[lane]) && bits[lane][slot] {
				word |= 1 << uint(lane)
			}
		}
		if err := p.port.WriteSlot(allMask, t0h); err != nil {
			return fmt.Errorf("parallel: slot %d: %w", slot, err)
		}
		if err := p.port.WriteSlot(word, t1h-t0h); err != nil {
			return fmt.Errorf("parallel: slot %d: %w", slot, err)
		}
		if err := p.port.WriteSlot(0, period-t1h); err != nil {
			return fmt.Errorf("parallel: slot %d: %w", slot, err)
		}
	}
	if err := p.port.WriteSlot(0, p.spec.Reset+p.spec.Reset/4); err != nil {
		return fmt.Errorf("parallel: latch: %w", err)
	}
	return nil
}

// Wait is immediate; the port writes are synchronous.
func (p *Parallel) Wait() error { return nil }

// laneBits classifies a lane's symbols back into bit values. The
// transmit side demands exact symbols; garbage in the source stream is
// a programming error, not a channel condition to recover from.
func laneBits(syms []codec.Symbol, spec timing.Spec) ([]bool, error) {
	bits := make([]bool, 0, len(syms))
	for i, s := range syms {
		switch codec.Classify(s, spec) {
		case codec.Reset:
			return bits, nil
		case codec.One:
			bits = append(bits, true)
		case codec.Zero:
			bits = append(bits, false)
		default:
			return nil, fmt.Errorf("symbol %d %v outside every window", i, s)
		}
	}
	return bits, nil
}

var _ Backend = &Parallel{}
