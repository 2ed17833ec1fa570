//go:build linux

package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCDevMissingChip(t *testing.T) {
	_, err := NewCDev("gpiochip-does-not-exist", 18)
	assert.ErrorIs(t, err, ErrUnavailable)
}
