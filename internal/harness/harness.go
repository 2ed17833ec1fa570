// Package harness runs the loopback conformance matrix: encode a known
// pattern, transmit it through one backend at a time, capture the wire,
// decode, and compare byte for byte.
package harness

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/clockless/internal/codec"
	"github.com/coreman2200/clockless/internal/dither"
	"github.com/coreman2200/clockless/internal/registry"
	"github.com/coreman2200/clockless/internal/timing"
	"github.com/coreman2200/clockless/internal/wire"
)

// Capturer is the RX side of the loop: whatever observed the wire hands
// back raw duration pairs. Hardware capture peripherals and the
// simulated taps all reduce to this.
type Capturer interface {
	Capture(timeout time.Duration) ([]codec.Symbol, error)
}

// Case is one tuple of the conformance matrix.
type Case struct {
	Driver    string
	Lanes     int
	StripSize int
	Pattern   Pattern
}

// Matrix builds the cross product of drivers, lane counts, strip sizes
// and the canonical patterns.
func Matrix(drivers []string, lanes, sizes []int, patterns []Pattern) []Case {
	var out []Case
	for _, d := range drivers {
		for _, l := range lanes {
			for _, n := range sizes {
				for _, p := range patterns {
					out = append(out, Case{Driver: d, Lanes: l, StripSize: n, Pattern: p})
				}
			}
		}
	}
	return out
}

// tuple states; each case walks Idle through Done exactly once.
type state int

const (
	stateIdle state = iota
	stateWarmup
	stateMeasuring
	stateComparing
	stateDone
)

// Harness owns a registry and the capture taps attached to each driver.
type Harness struct {
	reg      *registry.Registry
	spec     timing.Spec
	channels int

	// one capturer per lane per driver; lane 0 for serial backends
	taps map[string][]Capturer

	// Margin scales the nominal transmit duration into the capture
	// timeout; Floor absorbs scheduling jitter on short frames.
	Margin int
	Floor  time.Duration

	// Brightness, when nonzero, video-scales every pattern channel
	// before encoding. Zero means full intensity, unscaled.
	Brightness uint8

	// OnResult, when set, observes each tuple as it completes.
	OnResult func(Result)
}

// New builds a harness over reg for the given chipset and channel
// count.
func New(reg *registry.Registry, spec timing.Spec, channels int) *Harness {
	return &Harness{
		reg:      reg,
		spec:     spec,
		channels: channels,
		taps:     map[string][]Capturer{},
		Margin:   5,
		Floor:    25 * time.Millisecond,
	}
}

// AttachCapture wires the capture taps for one driver, one per lane.
func (h *Harness) AttachCapture(driver string, taps ...Capturer) {
	h.taps[driver] = taps
}

// Run executes every case and aggregates the matrix report. A failing
// tuple never aborts the rest; each outcome is recorded independently.
func (h *Harness) Run(cases []Case) Report {
	rep := Report{}
	for _, c := range cases {
		res := h.runCase(c)
		rep.add(res)
		ev := log.Info()
		if !res.Passed {
			ev = log.Warn()
		}
		ev.Str("driver", res.Driver).
			Int("lanes", res.Lanes).
			Int("leds", res.StripSize).
			Str("pattern", res.Pattern).
			Str("result", res.Verdict()).
			Msg("tuple done")
		if h.OnResult != nil {
			h.OnResult(res)
		}
	}
	return rep
}

func (h *Harness) runCase(c Case) Result {
	res := Result{
		Driver:    c.Driver,
		Lanes:     c.Lanes,
		StripSize: c.StripSize,
		Pattern:   c.Pattern.Name,
		LedsTotal: c.StripSize * c.Lanes,
	}
	pixels := c.Pattern.Build(c.StripSize)
	if h.Brightness > 0 {
		for _, px := range pixels {
			for ch := range px {
				px[ch] = dither.Scale8Video(px[ch], h.Brightness)
			}
		}
	}
	res.BytesExpected = c.StripSize * h.channels * c.Lanes

	taps := h.taps[c.Driver]
	syms := codec.EncodeFrame(pixels, h.spec)
	timeout := h.timeout(c.StripSize)

	st := stateIdle
	var frames [][]codec.Symbol
	for st != stateDone {
		switch st {
		case stateIdle:
			// Driver selection is the Idle exit condition; only a selected
			// driver can be faulted for its missing RX side.
			if !h.reg.SetExclusive(c.Driver) {
				return res.fail("driver not registered")
			}
			if len(taps) == 0 {
				return res.fail("no capture tap attached")
			}
			st = stateWarmup

		case stateWarmup:
			// First transmission absorbs setup latency; everything it
			// put on the wire is discarded.
			if err := h.transmitOnce(c.Driver, syms); err != nil {
				return res.fail(fmt.Sprintf("warmup transmit: %v", err))
			}
			for _, tap := range taps {
				_, _ = tap.Capture(timeout)
			}
			st = stateMeasuring

		case stateMeasuring:
			if err := h.transmitOnce(c.Driver, syms); err != nil {
				return res.fail(fmt.Sprintf("transmit: %v", err))
			}
			frames = frames[:0]
			for lane, tap := range taps {
				f, err := tap.Capture(timeout)
				if errors.Is(err, wire.ErrTimeout) {
					// Hard failure for this tuple only; no comparison.
					return res.fail(fmt.Sprintf("rx timeout on lane %d", lane))
				}
				if err != nil {
					return res.fail(fmt.Sprintf("capture lane %d: %v", lane, err))
				}
				frames = append(frames, f)
			}
			st = stateComparing

		case stateComparing:
			for _, f := range frames {
				h.compareLane(&res, pixels, f)
			}
			res.Passed = res.BytesCaptured == res.BytesExpected && res.LedsMatched == res.LedsTotal
			st = stateDone
		}
	}
	return res
}

func (h *Harness) transmitOnce(driver string, syms []codec.Symbol) error {
	b, ok := h.reg.Get(driver)
	if !ok {
		return fmt.Errorf("driver %q not enabled", driver)
	}
	if err := b.Transmit(syms); err != nil {
		return err
	}
	return b.Wait()
}

func (h *Harness) compareLane(res *Result, want []codec.Pixel, syms []codec.Symbol) {
	f, err := codec.DecodeStream(syms, h.spec, h.channels)
	res.ErrorCount += f.ErrorCount
	if err != nil {
		res.DecodeErrors = append(res.DecodeErrors, err.Error())
	}
	res.BytesCaptured += len(f.Bytes)
	for i := range want {
		if i < len(f.Pixels) && want[i].Equal(f.Pixels[i]) {
			res.LedsMatched++
		}
	}
}

func (h *Harness) timeout(stripSize int) time.Duration {
	d := h.spec.FrameDuration(stripSize*h.channels) * time.Duration(h.Margin)
	if d < h.Floor {
		d = h.Floor
	}
	return d
}
