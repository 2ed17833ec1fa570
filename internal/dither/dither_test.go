package dither

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntegralInputPassesThrough(t *testing.T) {
	d := New(4, 3)
	for frame := 0; frame < 16; frame++ {
		assert.Equal(t, uint8(0), d.Dither(0, 0, 0))
		assert.Equal(t, uint8(127), d.Dither(1, 1, 127))
		assert.Equal(t, uint8(255), d.Dither(3, 2, 255))
	}
}

func TestConvergenceToScaledMean(t *testing.T) {
	// v=100 at scale=128 wants 50.0 exactly; v=101 wants 50.5 and must
	// alternate so the mean lands on it.
	cases := []struct {
		v, scale uint8
		want     float64
	}{
		{100, 128, 50.0},
		{101, 128, 50.5},
		{255, 85, 84.66796875}, // 255*85/256
		{1, 64, 0.25},
	}
	const frames = 4096
	for _, c := range cases {
		d := New(1, 1)
		sum := 0.0
		for i := 0; i < frames; i++ {
			sum += float64(d.DitherScaled(0, 0, c.v, c.scale))
		}
		mean := sum / frames
		assert.InDelta(t, c.want, mean, 1.0/256.0, "v=%d scale=%d", c.v, c.scale)
	}
}

func TestQuarterLSBCycleCarriesNegativeError(t *testing.T) {
	// A 0.25 LSB target must emit one 1 in four frames. Dropping the
	// negative remainder after the round-up would yield 0,1,0 repeating
	// and a mean of 1/3 instead.
	d := New(1, 1)
	var got []uint8
	for i := 0; i < 8; i++ {
		got = append(got, d.DitherScaled(0, 0, 1, 64))
	}
	assert.Equal(t, []uint8{0, 1, 0, 0, 0, 1, 0, 0}, got)
}

func TestBoundedBiasAtEveryFrame(t *testing.T) {
	// Running bias never exceeds one LSB once at least two frames ran.
	d := New(1, 1)
	want := float64(77) * float64(200) / 256.0
	sum := 0.0
	for i := 1; i <= 512; i++ {
		sum += float64(d.DitherScaled(0, 0, 77, 200))
		if i >= 2 {
			assert.LessOrEqual(t, absf(sum/float64(i)-want), 1.0,
				"bias exceeded 1 LSB at frame %d", i)
		}
	}
}

func TestFullScaleNeverWraps(t *testing.T) {
	// Persistent full drive must pin at 255; a wrap to 0 would flash the
	// LED dark, which is the one artifact dithering may never introduce.
	d := New(1, 1)
	for i := 0; i < 1000; i++ {
		assert.Equal(t, uint8(255), d.Dither(0, 0, 255))
	}
	d2 := New(1, 1)
	for i := 0; i < 1000; i++ {
		out := d2.DitherScaled(0, 0, 255, 255)
		assert.GreaterOrEqual(t, out, uint8(254))
	}
}

func TestAccumulatorsAreIndependent(t *testing.T) {
	d := New(2, 3)
	// Drive one channel with a fractional target; siblings stay exact.
	for i := 0; i < 100; i++ {
		d.DitherScaled(0, 1, 101, 128)
		assert.Equal(t, uint8(42), d.Dither(0, 0, 42))
		assert.Equal(t, uint8(42), d.Dither(1, 1, 42))
	}
}

func TestResetClearsCarriedError(t *testing.T) {
	d := New(1, 1)
	d.DitherScaled(0, 0, 101, 128) // leaves ±0.5 LSB behind
	d.Reset()
	assert.Equal(t, uint8(50), d.DitherScaled(0, 0, 100, 128))
}

func TestScale8Video(t *testing.T) {
	assert.Equal(t, uint8(0), Scale8Video(0, 128))
	assert.Equal(t, uint8(1), Scale8Video(1, 1)) // nonzero never hits zero
	assert.Equal(t, uint8(127), Scale8Video(255, 128))
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
