// Package codec turns LED color bytes into clockless timing symbols and
// back. Encoding is stateless per byte; decoding classifies captured
// pulse pairs against a chipset's tolerance windows.
package codec

import (
	"fmt"
	"time"
)

// Symbol is one encoded bit on the wire: the pin is held high for High,
// then low for Low. A frame latch is a symbol whose Low meets the
// chipset reset threshold.
type Symbol struct {
	High time.Duration
	Low  time.Duration
}

func (s Symbol) String() string {
	return fmt.Sprintf("(%v/%v)", s.High, s.Low)
}

// Pixel is one LED's channel bytes in device color order. The color
// order permutation happens upstream; this layer never reorders.
type Pixel []byte

// Channels returns the channel count (3 for RGB, 4 for RGBW).
func (p Pixel) Channels() int { return len(p) }

// Equal reports byte-exact equality.
func (p Pixel) Equal(o Pixel) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// RGB builds a 3-channel pixel.
func RGB(r, g, b byte) Pixel { return Pixel{r, g, b} }

// RGBW builds a 4-channel pixel.
func RGBW(r, g, b, w byte) Pixel { return Pixel{r, g, b, w} }

// FlattenPixels serializes pixels into a contiguous byte buffer.
// Every pixel must carry exactly channels bytes.
func FlattenPixels(pixels []Pixel, channels int) ([]byte, error) {
	out := make([]byte, 0, len(pixels)*channels)
	for i, p := range pixels {
		if len(p) != channels {
			return nil, fmt.Errorf("pixel %d has %d channels, want %d", i, len(p), channels)
		}
		out = append(out, p...)
	}
	return out, nil
}
