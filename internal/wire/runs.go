package wire

import (
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/clockless/internal/codec"
	"github.com/coreman2200/clockless/internal/timing"
)

// Run is one constant-level stretch of the captured waveform.
type Run struct {
	High bool
	D    time.Duration
}

// RunsToSymbols pairs level runs into (high, low) symbols. Adjacent
// runs at the same level merge and zero-length runs vanish first, so
// callers can emit them mechanically. A leading low run (line idle
// before the first pulse) is discarded.
//
// On the wire the final data bit's low and the frame latch are one
// contiguous low stretch. A low run that reaches the reset threshold is
// therefore split: the data bit keeps its nominal low, inferred from
// its high period, and the remainder becomes a distinct latch symbol.
// A stream that stops short of the threshold gets a latch appended,
// because the line idles low once transmission ends.
func RunsToSymbols(runs []Run, spec timing.Spec) []codec.Symbol {
	merged := make([]Run, 0, len(runs))
	for _, r := range runs {
		if r.D == 0 {
			continue
		}
		if n := len(merged); n > 0 && merged[n-1].High == r.High {
			merged[n-1].D += r.D
			continue
		}
		merged = append(merged, r)
	}
	if len(merged) > 0 && !merged[0].High {
		merged = merged[1:]
	}

	latch := spec.Reset + spec.Reset/4
	out := make([]codec.Symbol, 0, len(merged)/2+1)
	for i := 0; i < len(merged); i += 2 {
		high := merged[i].D
		low := latch // stream ended on a high run; the idle that follows is the latch
		if i+1 < len(merged) {
			low = merged[i+1].D
		}
		if low >= spec.Reset {
			dl := nominalLow(high, spec)
			rest := low - dl
			if rest < spec.Reset {
				rest = latch
			}
			out = append(out,
				codec.Symbol{High: high, Low: dl},
				codec.Symbol{High: 0, Low: rest})
			continue
		}
		out = append(out, codec.Symbol{High: high, Low: low})
	}
	if n := len(out); n > 0 && out[n-1].Low < spec.Reset {
		out = append(out, codec.Symbol{High: 0, Low: latch})
	}
	return out
}

// nominalLow reconstructs the low period the final bit carried before
// the latch fused onto it. The high period tells the bit values apart;
// a high outside both windows falls back to the nominal period
// remainder.
func nominalLow(high time.Duration, spec timing.Spec) time.Duration {
	switch {
	case spec.Bit1High.Contains(high):
		return spec.Bit1Low.Mid()
	case spec.Bit0High.Contains(high):
		return spec.Bit0Low.Mid()
	default:
		if p := spec.BitPeriod() - high; p > 0 {
			return p
		}
		return 0
	}
}

// SymbolsFromNRZBytes reconstructs symbols from a raw NRZ bitstream as
// shifted out MSB-first at freq, e.g. the 3x-expanded bytes a SPI
// peripheral clocks onto the data line. Trailing low padding folds into
// the terminal latch symbol.
func SymbolsFromNRZBytes(data []byte, freq physic.Frequency, spec timing.Spec) []codec.Symbol {
	period := freq.Period()
	runs := make([]Run, 0, 64)
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			high := b&(1<<uint(i)) != 0
			if n := len(runs); n > 0 && runs[n-1].High == high {
				runs[n-1].D += period
			} else {
				runs = append(runs, Run{High: high, D: period})
			}
		}
	}
	return RunsToSymbols(runs, spec)
}
