// Package config loads and saves the validation run configuration.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type SPI struct {
	Dev      string `yaml:"dev"`       // e.g. /dev/spidev0.0
	SpeedKHz int    `yaml:"speed_khz"` // SPI clock, normally 2500
}

type CDev struct {
	Chip   string `yaml:"chip"`   // e.g. gpiochip0
	Offset int    `yaml:"offset"` // BCM line offset
}

type Capture struct {
	Margin  int `yaml:"margin"`   // capture timeout = transmit duration x margin
	FloorMs int `yaml:"floor_ms"` // never below this
}

type Config struct {
	Chipset  string `yaml:"chipset"` // "WS2812B" | "WS2812" | "SK6812"
	Channels int    `yaml:"channels"`

	Drivers    []string `yaml:"drivers"`
	Lanes      []int    `yaml:"lanes"`
	StripSizes []int    `yaml:"strip_sizes"`

	Serve   string `yaml:"serve,omitempty"` // websocket listen address
	Preview bool   `yaml:"preview"`

	SPI     SPI     `yaml:"spi,omitempty"`
	CDev    CDev    `yaml:"cdev,omitempty"`
	Capture Capture `yaml:"capture,omitempty"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
