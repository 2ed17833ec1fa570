package harness

import "github.com/coreman2200/clockless/internal/codec"

// Pattern generates the pixel at each LED index for one conformance
// pattern.
type Pattern struct {
	Name    string
	PixelAt func(i int) codec.Pixel
}

// The four canonical conformance patterns. A catches MSB/LSB inversion
// and nibble swaps, B exercises boundary and alternating bits, C is the
// rotated channel assignment, D is the baseline solid-color sanity
// check.
var (
	PatternA = Pattern{Name: "A", PixelAt: func(int) codec.Pixel { return codec.RGB(0xF0, 0x0F, 0xAA) }}
	PatternB = Pattern{Name: "B", PixelAt: func(int) codec.Pixel { return codec.RGB(0x55, 0xFF, 0x00) }}
	PatternC = Pattern{Name: "C", PixelAt: func(int) codec.Pixel { return codec.RGB(0x0F, 0xAA, 0xF0) }}
	PatternD = Pattern{Name: "D", PixelAt: func(i int) codec.Pixel {
		switch i % 3 {
		case 0:
			return codec.RGB(0xFF, 0x00, 0x00)
		case 1:
			return codec.RGB(0x00, 0xFF, 0x00)
		default:
			return codec.RGB(0x00, 0x00, 0xFF)
		}
	}}
)

// Patterns lists the conformance set in matrix order.
var Patterns = []Pattern{PatternA, PatternB, PatternC, PatternD}

// Build materializes n pixels of the pattern.
func (p Pattern) Build(n int) []codec.Pixel {
	out := make([]codec.Pixel, n)
	for i := range out {
		out[i] = p.PixelAt(i)
	}
	return out
}
