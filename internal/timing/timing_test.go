package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRangeContainsBoundaries(t *testing.T) {
	r := Range{250 * time.Nanosecond, 550 * time.Nanosecond}
	assert.True(t, r.Contains(250*time.Nanosecond))
	assert.True(t, r.Contains(550*time.Nanosecond))
	assert.False(t, r.Contains(249*time.Nanosecond))
	assert.False(t, r.Contains(551*time.Nanosecond))
}

func TestRangeMid(t *testing.T) {
	r := Range{250 * time.Nanosecond, 550 * time.Nanosecond}
	assert.Equal(t, 400*time.Nanosecond, r.Mid())
}

func TestWS2812BReference(t *testing.T) {
	s, ok := ByName("WS2812B")
	assert.True(t, ok)
	assert.Equal(t, 400*time.Nanosecond, s.Bit0High.Mid())
	assert.Equal(t, 850*time.Nanosecond, s.Bit0Low.Mid())
	assert.Equal(t, 800*time.Nanosecond, s.Bit1High.Mid())
	assert.Equal(t, 450*time.Nanosecond, s.Bit1Low.Mid())
	assert.Equal(t, 50*time.Microsecond, s.Reset)
	assert.Equal(t, 25*time.Nanosecond, s.Resolution)
	// Both bit values span the same nominal period.
	assert.Equal(t, s.Bit0High.Mid()+s.Bit0Low.Mid(), s.BitPeriod())
}

func TestByNameUnknown(t *testing.T) {
	_, ok := ByName("APA102")
	assert.False(t, ok)
}

func TestFrameDuration(t *testing.T) {
	// 30 bytes at 1.25us/bit plus 50us reset.
	got := WS2812B.FrameDuration(30)
	want := 30*8*1250*time.Nanosecond + 50*time.Microsecond
	assert.Equal(t, want, got)
}
