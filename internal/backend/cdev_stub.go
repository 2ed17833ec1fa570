//go:build !linux

package backend

import (
	"fmt"

	"github.com/coreman2200/clockless/internal/codec"
)

type CDev struct{}

func NewCDev(chip string, offset int) (*CDev, error) {
	return nil, fmt.Errorf("%w: cdev driver not supported on this platform", ErrUnavailable)
}

func (c *CDev) Name() string                       { return "cdev" }
func (c *CDev) Priority() int                      { return 20 }
func (c *CDev) Transmit(syms []codec.Symbol) error { return ErrUnavailable }
func (c *CDev) Wait() error                        { return nil }
func (c *CDev) Close() error                       { return nil }
