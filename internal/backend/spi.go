package backend

import (
	"fmt"
	"sync/atomic"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/nrzled"

	"github.com/coreman2200/clockless/internal/codec"
	"github.com/coreman2200/clockless/internal/timing"
)

// SPI pushes frames through an NRZ-expanding SPI peripheral: each
// protocol bit becomes three SPI bits clocked at 3x the bit rate, so
// the controller's own shift register guarantees the pulse widths. The
// symbol stream is translated back into the peripheral's native pixel
// bytes; timing regeneration is the hardware's job.
type SPI struct {
	port     spi.Port
	spec     timing.Spec
	channels int
	freq     physic.Frequency

	dev    *nrzled.Dev
	pixels int
	busy   int32
	done   chan error
}

// NewSPI builds a backend over an SPI port. freq is the SPI clock,
// normally 3x the chipset bit rate (2.5MHz for the WS2812B family).
func NewSPI(port spi.Port, spec timing.Spec, channels int, freq physic.Frequency) *SPI {
	return &SPI{port: port, spec: spec, channels: channels, freq: freq}
}

func (s *SPI) Name() string  { return "spi" }
func (s *SPI) Priority() int { return 30 }

func (s *SPI) Transmit(syms []codec.Symbol) error {
	if !atomic.CompareAndSwapInt32(&s.busy, 0, 1) {
		return ErrBusy
	}
	f, err := codec.DecodeStream(syms, s.spec, s.channels)
	if err != nil || f.ErrorCount > 0 {
		atomic.StoreInt32(&s.busy, 0)
		return fmt.Errorf("spi: symbol stream not representable as pixel bytes (%d invalid): %v", f.ErrorCount, err)
	}
	if err := s.ensureDev(len(f.Pixels)); err != nil {
		atomic.StoreInt32(&s.busy, 0)
		return err
	}
	// The peripheral shifts each pixel's second channel out first (GRB
	// wire order); pre-swap so the line carries the bytes in stream
	// order.
	buf := append([]byte(nil), f.Bytes...)
	if s.channels >= 2 {
		for i := 0; i+1 < len(buf); i += s.channels {
			buf[i], buf[i+1] = buf[i+1], buf[i]
		}
	}
	done := make(chan error, 1)
	s.done = done
	go func() {
		_, err := s.dev.Write(buf)
		if err != nil {
			err = fmt.Errorf("spi: write: %w", err)
		}
		atomic.StoreInt32(&s.busy, 0)
		done <- err
	}()
	return nil
}

// Wait blocks until the queued frame has been shifted out.
func (s *SPI) Wait() error {
	if s.done == nil {
		return nil
	}
	err := <-s.done
	s.done = nil
	return err
}

// ensureDev (re)connects the NRZ device when the frame size changes.
func (s *SPI) ensureDev(pixels int) error {
	if s.dev != nil && s.pixels == pixels {
		return nil
	}
	opts := nrzled.Opts{NumPixels: pixels, Channels: s.channels, Freq: s.freq}
	d, err := nrzled.NewSPI(s.port, &opts)
	if err != nil {
		return fmt.Errorf("%w: nrzled: %v", ErrUnavailable, err)
	}
	s.dev = d
	s.pixels = pixels
	return nil
}

var _ Backend = &SPI{}
