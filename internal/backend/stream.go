package backend

import (
	"fmt"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/gpio/gpiostream"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/clockless/internal/codec"
)

// Stream hands the frame to a stream-capable pin (DMA, PIO or kernel
// driven) as an edge list at a fixed tick resolution. Transmit returns
// on handoff; Wait blocks until the peripheral finishes.
type Stream struct {
	pin  gpiostream.PinOut
	res  time.Duration
	busy int32
	done chan error
}

// NewStream builds a backend over pin, rasterizing at res per tick.
func NewStream(pin gpiostream.PinOut, res time.Duration) *Stream {
	return &Stream{pin: pin, res: res}
}

func (s *Stream) Name() string  { return "gpiostream" }
func (s *Stream) Priority() int { return 40 }

func (s *Stream) Transmit(syms []codec.Symbol) error {
	if !atomic.CompareAndSwapInt32(&s.busy, 0, 1) {
		return ErrBusy
	}
	es := edgeStream(syms, s.res)
	done := make(chan error, 1)
	s.done = done
	go func() {
		err := s.pin.StreamOut(es)
		if err != nil {
			err = fmt.Errorf("gpiostream: %w", err)
		}
		atomic.StoreInt32(&s.busy, 0)
		done <- err
	}()
	return nil
}

// Wait blocks until the in-flight stream has been fully emitted. The
// symbol source must not be reused before Wait returns.
func (s *Stream) Wait() error {
	if s.done == nil {
		return nil
	}
	err := <-s.done
	s.done = nil
	return err
}

// edgeStream rasterizes symbols into alternating high/low tick counts.
// Runs longer than a uint16 of ticks are split with zero-length
// opposite-level edges in between.
func edgeStream(syms []codec.Symbol, res time.Duration) *gpiostream.EdgeStream {
	freq := physic.Frequency(time.Second/res) * physic.Hertz
	edges := make([]uint16, 0, len(syms)*2)
	for _, sym := range syms {
		edges = appendTicks(edges, ticks(sym.High, res))
		edges = appendTicks(edges, ticks(sym.Low, res))
	}
	return &gpiostream.EdgeStream{Freq: freq, Edges: edges}
}

func ticks(d, res time.Duration) int {
	return int((d + res/2) / res)
}

func appendTicks(edges []uint16, n int) []uint16 {
	for n > 0xFFFF {
		edges = append(edges, 0xFFFF, 0)
		n -= 0xFFFF
	}
	return append(edges, uint16(n))
}

var _ Backend = &Stream{}
