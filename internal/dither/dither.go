// Package dither spreads sub-LSB quantization error across successive
// frames (temporal dithering), approximating more than 8 bits of
// intensity depth on 8-bit channels.
package dither

// Ditherer carries one signed error accumulator per (led, channel).
// Accumulators persist across frames and are reset only on explicit
// reconfiguration. The arithmetic is pure; there are no failure modes.
//
// Internally intensities are tracked in 1/256ths of an LSB, so a scaled
// value like 100.4 keeps its fractional part alive between frames.
type Ditherer struct {
	channels int
	acc      []int32
}

// New sizes the accumulator table for numLeds LEDs of channels channels
// each. All accumulators start at zero.
func New(numLeds, channels int) *Ditherer {
	return &Ditherer{
		channels: channels,
		acc:      make([]int32, numLeds*channels),
	}
}

// Channels returns the per-LED channel count the table was sized for.
func (d *Ditherer) Channels() int { return d.channels }

// Reset zeroes every accumulator. Call when the strip is reconfigured;
// stale error from a previous layout must not leak into the new one.
func (d *Ditherer) Reset() {
	for i := range d.acc {
		d.acc[i] = 0
	}
}

// Dither emits the next byte for a desired 8-bit intensity. With an
// integral input the output equals the input; the accumulator only does
// work once fractional intensities enter via DitherScaled.
func (d *Ditherer) Dither(led, ch int, v uint8) uint8 {
	return d.apply(led, ch, int32(v)<<8)
}

// DitherScaled applies a brightness scale and dithers the fractional
// remainder. The desired intensity is v*scale/256 with 8 fractional
// bits; over many frames the mean output converges to it.
func (d *Ditherer) DitherScaled(led, ch int, v, scale uint8) uint8 {
	return d.apply(led, ch, int32(v)*int32(scale))
}

// apply runs one first-order error-feedback step. want is in 1/256 LSB.
func (d *Ditherer) apply(led, ch int, want int32) uint8 {
	i := led*d.channels + ch
	sum := d.acc[i] + want
	out := (sum + 128) >> 8 // round half up
	if out < 0 {
		// Emit the floor but keep the full negative remainder; overshoot
		// from an earlier round-up still has to be paid back or the mean
		// drifts upward.
		d.acc[i] = sum
		return 0
	}
	if out > 255 {
		// Saturated: clamp and drop the excess instead of wrapping.
		// Carrying error past full scale would darken later frames of a
		// channel the LED cannot physically brighten.
		d.acc[i] = 0
		return 255
	}
	d.acc[i] = sum - out<<8
	return uint8(out)
}

// Scale8Video scales v by scale/256 without ever dimming a nonzero
// input to zero. Used ahead of dithering for global brightness.
func Scale8Video(v, scale uint8) uint8 {
	if v == 0 {
		return 0
	}
	out := uint8((int(v) * int(scale)) >> 8)
	if out == 0 && scale != 0 {
		return 1
	}
	return out
}
