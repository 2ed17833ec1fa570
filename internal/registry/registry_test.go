package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coreman2200/clockless/internal/codec"
)

type stub struct {
	name string
	prio int
}

func (s *stub) Name() string                       { return s.name }
func (s *stub) Priority() int                      { return s.prio }
func (s *stub) Transmit(syms []codec.Symbol) error { return nil }
func (s *stub) Wait() error                        { return nil }

func TestListOrdering(t *testing.T) {
	r := New()
	assert.NoError(t, r.Register(&stub{"sim", 1}))
	assert.NoError(t, r.Register(&stub{"rmt", 40}))
	assert.NoError(t, r.Register(&stub{"i2s", 40})) // tie, registered later
	assert.NoError(t, r.Register(&stub{"bitbang", 10}))

	names := []string{}
	for _, d := range r.List() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"rmt", "i2s", "bitbang", "sim"}, names)
}

func TestDuplicateName(t *testing.T) {
	r := New()
	assert.NoError(t, r.Register(&stub{"rmt", 40}))
	assert.ErrorIs(t, r.Register(&stub{"rmt", 5}), ErrDuplicate)
}

func TestSetExclusiveDisablesOthers(t *testing.T) {
	r := New()
	_ = r.Register(&stub{"rmt", 40})
	_ = r.Register(&stub{"bitbang", 10})
	_ = r.Register(&stub{"sim", 1})

	assert.True(t, r.SetExclusive("rmt"))
	for _, d := range r.List() {
		assert.Equal(t, d.Name == "rmt", d.Enabled, "driver %s", d.Name)
	}

	_, ok := r.Get("bitbang")
	assert.False(t, ok)
	_, ok = r.Get("rmt")
	assert.True(t, ok)
}

func TestSetExclusiveUnknownLeavesStateUntouched(t *testing.T) {
	r := New()
	_ = r.Register(&stub{"rmt", 40})
	_ = r.Register(&stub{"sim", 1})
	_ = r.Disable("sim")

	assert.False(t, r.SetExclusive("nope"))

	list := r.List()
	assert.True(t, list[0].Enabled)  // rmt untouched
	assert.False(t, list[1].Enabled) // sim still disabled
}

func TestEnableDisable(t *testing.T) {
	r := New()
	_ = r.Register(&stub{"rmt", 40})
	assert.True(t, r.Disable("rmt"))
	_, ok := r.Get("rmt")
	assert.False(t, ok)
	assert.True(t, r.Enable("rmt"))
	_, ok = r.Get("rmt")
	assert.True(t, ok)
	assert.False(t, r.Enable("ghost"))
}
