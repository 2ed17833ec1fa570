package codec

import (
	"github.com/coreman2200/clockless/internal/timing"
)

// EncodeBit returns the nominal symbol for a single bit value. Nominal
// durations sit at the midpoint of the allowed windows so clock jitter
// eats margin symmetrically on both sides.
func EncodeBit(bit bool, spec timing.Spec) Symbol {
	if bit {
		return Symbol{High: spec.Bit1High.Mid(), Low: spec.Bit1Low.Mid()}
	}
	return Symbol{High: spec.Bit0High.Mid(), Low: spec.Bit0Low.Mid()}
}

// EncodeByte expands one byte into 8 symbols, MSB first. Each byte
// encodes independently of its neighbors, which is what lets parallel
// lanes generate their streams without coordination.
func EncodeByte(b byte, spec timing.Spec) [8]Symbol {
	var out [8]Symbol
	for i := 0; i < 8; i++ {
		out[i] = EncodeBit(b&(0x80>>i) != 0, spec)
	}
	return out
}

// ResetSymbol returns the end-of-frame latch: no high pulse, then a low
// period past the chipset reset threshold.
func ResetSymbol(spec timing.Spec) Symbol {
	return Symbol{High: 0, Low: spec.Reset + spec.Reset/4}
}

// EncodeFrame concatenates the encoding of every channel byte of every
// pixel in buffer order and appends the reset latch.
func EncodeFrame(pixels []Pixel, spec timing.Spec) []Symbol {
	n := 0
	for _, p := range pixels {
		n += len(p)
	}
	out := make([]Symbol, 0, n*8+1)
	for _, p := range pixels {
		for _, b := range p {
			syms := EncodeByte(b, spec)
			out = append(out, syms[:]...)
		}
	}
	return append(out, ResetSymbol(spec))
}

// EncodeBytes is EncodeFrame over a flat channel-byte buffer.
func EncodeBytes(data []byte, spec timing.Spec) []Symbol {
	out := make([]Symbol, 0, len(data)*8+1)
	for _, b := range data {
		syms := EncodeByte(b, spec)
		out = append(out, syms[:]...)
	}
	return append(out, ResetSymbol(spec))
}
