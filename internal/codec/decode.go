package codec

import (
	"errors"
	"fmt"
	"time"

	"github.com/coreman2200/clockless/internal/timing"
)

// Class is the result of classifying one captured symbol.
type Class int

const (
	Zero Class = iota
	One
	Reset
	Invalid
)

func (c Class) String() string {
	switch c {
	case Zero:
		return "0"
	case One:
		return "1"
	case Reset:
		return "RESET"
	default:
		return "INVALID"
	}
}

// Classify matches a captured pulse pair against the spec's windows.
// Rule order matters: a long-enough low period is a Reset no matter
// what the high time was.
func Classify(sym Symbol, spec timing.Spec) Class {
	if sym.Low >= spec.Reset {
		return Reset
	}
	if spec.Bit1High.Contains(sym.High) && spec.Bit1Low.Contains(sym.Low) {
		return One
	}
	if spec.Bit0High.Contains(sym.High) && spec.Bit0Low.Contains(sym.Low) {
		return Zero
	}
	return Invalid
}

// InvalidSymbol records an out-of-window capture for diagnostics.
type InvalidSymbol struct {
	Index  int
	Symbol Symbol
}

// Frame is the output of DecodeStream.
type Frame struct {
	Pixels []Pixel
	Bytes  []byte
	// ErrorCount counts recovered Invalid classifications. A nonzero
	// count means the capture was marginal, not that the data is wrong.
	ErrorCount  int
	InvalidSyms []InvalidSymbol
}

// ErrTruncatedByte reports a stream that ended with a partial byte.
// The partial bits are dropped, never guessed.
var ErrTruncatedByte = errors.New("codec: stream truncated mid-byte")

// DecodeStream reassembles captured symbols into pixels of the given
// channel count, MSB first, stopping at the first Reset or end of
// stream. Invalid symbols are recovered as the nearest valid bit and
// counted in Frame.ErrorCount; the caller decides what a nonzero count
// means. Leftover bytes that do not fill a whole pixel are kept in
// Frame.Bytes but reported as an error.
func DecodeStream(syms []Symbol, spec timing.Spec, channels int) (Frame, error) {
	if channels <= 0 {
		return Frame{}, fmt.Errorf("codec: invalid channel count %d", channels)
	}
	f := Frame{}
	var cur byte
	nbits := 0
loop:
	for i, s := range syms {
		c := Classify(s, spec)
		switch c {
		case Reset:
			break loop
		case Invalid:
			f.ErrorCount++
			f.InvalidSyms = append(f.InvalidSyms, InvalidSymbol{Index: i, Symbol: s})
			c = nearestBit(s, spec)
		}
		cur <<= 1
		if c == One {
			cur |= 1
		}
		nbits++
		if nbits == 8 {
			f.Bytes = append(f.Bytes, cur)
			cur, nbits = 0, 0
		}
	}
	var err error
	if nbits != 0 {
		err = fmt.Errorf("%w: %d trailing bits", ErrTruncatedByte, nbits)
	}
	for i := 0; i+channels <= len(f.Bytes); i += channels {
		f.Pixels = append(f.Pixels, Pixel(append([]byte(nil), f.Bytes[i:i+channels]...)))
	}
	if rem := len(f.Bytes) % channels; rem != 0 && err == nil {
		err = fmt.Errorf("codec: %d bytes do not fill a %d-channel pixel", rem, channels)
	}
	return f, err
}

// nearestBit picks the most likely intended bit for an out-of-window
// symbol by distance to the nominal midpoints. Recovery is best effort
// and always paired with an ErrorCount increment; ties resolve to Zero.
func nearestBit(s Symbol, spec timing.Spec) Class {
	d0 := absDur(s.High-spec.Bit0High.Mid()) + absDur(s.Low-spec.Bit0Low.Mid())
	d1 := absDur(s.High-spec.Bit1High.Mid()) + absDur(s.Low-spec.Bit1Low.Mid())
	if d1 < d0 {
		return One
	}
	return Zero
}

func absDur(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
