//go:build linux

package backend

import (
	"fmt"
	"sync/atomic"

	"github.com/warthog618/go-gpiocdev"

	"github.com/coreman2200/clockless/internal/codec"
)

// CDev bit-bangs through the Linux GPIO character device. Same timing
// discipline as BitBang, but usable on kernels where memory-mapped pin
// access is off limits. cdev ioctl latency adds jitter on top of each
// pulse, so this path is best paired with the slower chipset windows.
type CDev struct {
	line *gpiocdev.Line
	busy int32
}

// NewCDev requests the line as a low output, e.g. ("gpiochip0", 18).
func NewCDev(chip string, offset int) (*CDev, error) {
	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("%w: request %s:%d: %v", ErrUnavailable, chip, offset, err)
	}
	return &CDev{line: line}, nil
}

func (c *CDev) Name() string  { return "cdev" }
func (c *CDev) Priority() int { return 20 }

func (c *CDev) Transmit(syms []codec.Symbol) error {
	if !atomic.CompareAndSwapInt32(&c.busy, 0, 1) {
		return ErrBusy
	}
	defer atomic.StoreInt32(&c.busy, 0)

	cs := enterCritical()
	defer cs.exit()
	for _, s := range syms {
		if s.High > 0 {
			if err := c.line.SetValue(1); err != nil {
				return fmt.Errorf("cdev: set high: %w", err)
			}
			spin(s.High)
		}
		if err := c.line.SetValue(0); err != nil {
			return fmt.Errorf("cdev: set low: %w", err)
		}
		spin(s.Low)
	}
	return nil
}

func (c *CDev) Wait() error { return nil }

// Close releases the GPIO line.
func (c *CDev) Close() error { return c.line.Close() }

var _ Backend = &CDev{}
