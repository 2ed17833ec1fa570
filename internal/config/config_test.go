package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	c := &Config{
		Chipset:    "WS2812B",
		Channels:   3,
		Drivers:    []string{"sim", "parallel8"},
		Lanes:      []int{1, 8},
		StripSizes: []int{10, 300},
		SPI:        SPI{Dev: "/dev/spidev0.0", SpeedKHz: 2500},
		Capture:    Capture{Margin: 5, FloorMs: 25},
	}
	assert.NoError(t, Save(path, c))
	got, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, c, got)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
