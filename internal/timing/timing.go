// Package timing holds the per-chipset pulse timing tables for
// clockless (single-wire NRZ) LED protocols.
package timing

import "time"

// Range is a closed interval of pulse durations. Tolerance is already
// folded into Min/Max.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// Contains reports whether d falls inside the range, boundaries included.
func (r Range) Contains(d time.Duration) bool {
	return d >= r.Min && d <= r.Max
}

// Mid returns the midpoint of the range. Encoders emit midpoints to
// maximize margin against clock jitter on both sides.
func (r Range) Mid() time.Duration {
	return (r.Min + r.Max) / 2
}

// Spec is the immutable timing contract of one chipset family.
type Spec struct {
	Name string

	Bit0High Range
	Bit0Low  Range
	Bit1High Range
	Bit1Low  Range

	// Reset is the minimum low duration that latches a frame.
	Reset time.Duration

	// Resolution is the capture/playback tick. 25ns corresponds to the
	// 40MHz reference counter.
	Resolution time.Duration
}

// BitPeriod returns the nominal duration of one encoded bit.
func (s Spec) BitPeriod() time.Duration {
	return s.Bit1High.Mid() + s.Bit1Low.Mid()
}

// FrameDuration returns the nominal wire time for n data bytes plus the
// reset tail.
func (s Spec) FrameDuration(nBytes int) time.Duration {
	return time.Duration(nBytes*8)*s.BitPeriod() + s.Reset
}

// WS2812B is the canonical reference spec. Datasheet nominals are
// 400/850ns (bit 0) and 800/450ns (bit 1) with ±150ns tolerance.
var WS2812B = Spec{
	Name:       "WS2812B",
	Bit0High:   Range{250 * time.Nanosecond, 550 * time.Nanosecond},
	Bit0Low:    Range{700 * time.Nanosecond, 1000 * time.Nanosecond},
	Bit1High:   Range{650 * time.Nanosecond, 950 * time.Nanosecond},
	Bit1Low:    Range{300 * time.Nanosecond, 600 * time.Nanosecond},
	Reset:      50 * time.Microsecond,
	Resolution: 25 * time.Nanosecond,
}

// WS2812 (original, non-B) runs slightly slower high times.
var WS2812 = Spec{
	Name:       "WS2812",
	Bit0High:   Range{200 * time.Nanosecond, 500 * time.Nanosecond},
	Bit0Low:    Range{650 * time.Nanosecond, 950 * time.Nanosecond},
	Bit1High:   Range{550 * time.Nanosecond, 850 * time.Nanosecond},
	Bit1Low:    Range{450 * time.Nanosecond, 750 * time.Nanosecond},
	Reset:      50 * time.Microsecond,
	Resolution: 25 * time.Nanosecond,
}

// SK6812 shares the WS2812B cadence; commonly wired as RGBW.
var SK6812 = Spec{
	Name:       "SK6812",
	Bit0High:   Range{150 * time.Nanosecond, 450 * time.Nanosecond},
	Bit0Low:    Range{750 * time.Nanosecond, 1050 * time.Nanosecond},
	Bit1High:   Range{450 * time.Nanosecond, 750 * time.Nanosecond},
	Bit1Low:    Range{450 * time.Nanosecond, 750 * time.Nanosecond},
	Reset:      80 * time.Microsecond,
	Resolution: 25 * time.Nanosecond,
}

var specs = []Spec{WS2812B, WS2812, SK6812}

// ByName looks up a chipset spec. The match is exact.
func ByName(name string) (Spec, bool) {
	for _, s := range specs {
		if s.Name == name {
			return s, true
		}
	}
	return Spec{}, false
}

// Names lists the known chipset families in table order.
func Names() []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.Name
	}
	return out
}
