package harness

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/coreman2200/clockless/internal/backend"
	"github.com/coreman2200/clockless/internal/codec"
	"github.com/coreman2200/clockless/internal/registry"
	"github.com/coreman2200/clockless/internal/timing"
	"github.com/coreman2200/clockless/internal/wire"
)

var ws = timing.WS2812B

func simHarness(t *testing.T) (*Harness, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	rec := wire.NewRecorder()
	assert.NoError(t, reg.Register(backend.NewLoopback(rec)))
	h := New(reg, ws, 3)
	h.AttachCapture("sim", rec)
	return h, reg
}

func TestEndToEndPatternA(t *testing.T) {
	// The reference scenario: Pattern A, 1 lane, 10 LEDs -> 30 bytes
	// out, 30 bytes back, 10/10 LEDs, 100% accuracy, PASS.
	h, _ := simHarness(t)
	rep := h.Run([]Case{{Driver: "sim", Lanes: 1, StripSize: 10, Pattern: PatternA}})

	assert.Equal(t, 1, rep.Total)
	assert.True(t, rep.Passed())
	res := rep.Results[0]
	assert.Equal(t, 30, res.BytesExpected)
	assert.Equal(t, 30, res.BytesCaptured)
	assert.Equal(t, 10, res.LedsMatched)
	assert.Equal(t, 10, res.LedsTotal)
	assert.Equal(t, 0, res.ErrorCount)
	assert.Equal(t, "10/10 LEDs match, 100.0% accuracy, PASS", res.Verdict())
	assert.Equal(t, "1/1 tests passed: PASS", rep.Summary())
}

func TestFullSimMatrix(t *testing.T) {
	h, _ := simHarness(t)
	cases := Matrix([]string{"sim"}, []int{1}, []int{10, 300}, Patterns)
	rep := h.Run(cases)
	assert.Equal(t, 8, rep.Total)
	assert.Equal(t, 8, rep.PassCount)
	assert.True(t, rep.Passed())
	for _, res := range rep.Results {
		assert.Equal(t, 0, res.ErrorCount, "%s/%d", res.Pattern, res.StripSize)
		assert.Equal(t, res.BytesExpected, res.BytesCaptured)
	}
}

func TestStreamBackendInMatrix(t *testing.T) {
	reg := registry.New()
	rec := wire.NewRecorder()
	pin := &wire.StreamPin{N: "tap", Rec: rec, Spec: ws}
	assert.NoError(t, reg.Register(backend.NewStream(pin, ws.Resolution)))
	h := New(reg, ws, 3)
	h.AttachCapture("gpiostream", rec)

	rep := h.Run(Matrix([]string{"gpiostream"}, []int{1}, []int{10}, Patterns))
	assert.True(t, rep.Passed(), rep.String())
}

func TestParallelLanesInMatrix(t *testing.T) {
	reg := registry.New()
	port := wire.NewPortRecorder(8, ws)
	p, err := backend.NewParallel(port, 8, ws)
	assert.NoError(t, err)
	assert.NoError(t, reg.Register(p))

	h := New(reg, ws, 3)
	taps := make([]Capturer, 8)
	for i := range taps {
		taps[i] = &wire.LaneCapturer{Port: port, Lane: i}
	}
	h.AttachCapture("parallel8", taps...)

	rep := h.Run([]Case{{Driver: "parallel8", Lanes: 8, StripSize: 10, Pattern: PatternB}})
	assert.True(t, rep.Passed(), rep.String())
	res := rep.Results[0]
	assert.Equal(t, 8*30, res.BytesCaptured)
	assert.Equal(t, 80, res.LedsMatched)
}

func TestRxTimeoutFailsTupleOnly(t *testing.T) {
	reg := registry.New()
	live := wire.NewRecorder()
	dead := wire.NewRecorder() // tap on a wire nothing transmits to
	assert.NoError(t, reg.Register(backend.NewLoopback(live)))

	h := New(reg, ws, 3)
	h.Floor = 5 * time.Millisecond
	h.AttachCapture("sim", dead)

	rep := h.Run([]Case{{Driver: "sim", Lanes: 1, StripSize: 10, Pattern: PatternA}})
	assert.False(t, rep.Passed())
	assert.Contains(t, rep.Results[0].Failure, "rx timeout")
}

func TestUnknownDriverFailsTupleAndSuiteContinues(t *testing.T) {
	h, _ := simHarness(t)
	rep := h.Run([]Case{
		{Driver: "rmt", Lanes: 1, StripSize: 10, Pattern: PatternA},
		{Driver: "sim", Lanes: 1, StripSize: 10, Pattern: PatternA},
	})
	assert.Equal(t, 2, rep.Total)
	assert.Equal(t, 1, rep.PassCount)
	assert.False(t, rep.Passed())
	assert.Equal(t, "driver not registered", rep.Results[0].Failure)
	assert.True(t, rep.Results[1].Passed)
}

func TestMissingTapFaultsOnlySelectedDriver(t *testing.T) {
	// An unregistered driver fails on selection; the missing-tap failure
	// is reserved for drivers that were actually selected.
	reg := registry.New()
	assert.NoError(t, reg.Register(backend.NewLoopback(wire.NewRecorder())))
	h := New(reg, ws, 3)

	rep := h.Run([]Case{
		{Driver: "rmt", Lanes: 1, StripSize: 5, Pattern: PatternA},
		{Driver: "sim", Lanes: 1, StripSize: 5, Pattern: PatternA},
	})
	assert.Equal(t, "driver not registered", rep.Results[0].Failure)
	assert.Equal(t, "no capture tap attached", rep.Results[1].Failure)
}

func TestCorruptedCaptureFailsComparison(t *testing.T) {
	// A tap that truncates the frame: byte count mismatch must fail the
	// tuple even though every surviving LED matches.
	reg := registry.New()
	rec := wire.NewRecorder()
	assert.NoError(t, reg.Register(backend.NewLoopback(rec)))
	h := New(reg, ws, 3)
	h.AttachCapture("sim", truncatingTap{rec})

	rep := h.Run([]Case{{Driver: "sim", Lanes: 1, StripSize: 10, Pattern: PatternD}})
	res := rep.Results[0]
	assert.False(t, res.Passed)
	assert.Equal(t, 30, res.BytesExpected)
	assert.Equal(t, 27, res.BytesCaptured)
	assert.Equal(t, 9, res.LedsMatched)
}

type truncatingTap struct {
	rec *wire.Recorder
}

func (tt truncatingTap) Capture(timeout time.Duration) ([]codec.Symbol, error) {
	syms, err := tt.rec.Capture(timeout)
	if err != nil {
		return nil, err
	}
	// Drop the last LED (24 symbols) but keep the latch.
	if len(syms) > 25 {
		out := append([]codec.Symbol{}, syms[:len(syms)-25]...)
		return append(out, syms[len(syms)-1]), nil
	}
	return syms, nil
}

func TestJitteredChannelStillDecodes(t *testing.T) {
	// 100ns of jitter stays inside the ±150ns windows.
	reg := registry.New()
	rec := wire.NewRecorder()
	rec.SetJitter(100 * time.Nanosecond)
	assert.NoError(t, reg.Register(backend.NewLoopback(rec)))
	h := New(reg, ws, 3)
	h.AttachCapture("sim", rec)

	rep := h.Run([]Case{{Driver: "sim", Lanes: 1, StripSize: 50, Pattern: PatternC}})
	assert.True(t, rep.Passed(), rep.String())
}

func TestBrightnessScaledRunStillMatches(t *testing.T) {
	// Scaling happens before encoding, so the comparison sees the same
	// scaled bytes on both sides.
	h, _ := simHarness(t)
	h.Brightness = 64
	rep := h.Run([]Case{{Driver: "sim", Lanes: 1, StripSize: 10, Pattern: PatternD}})
	assert.True(t, rep.Passed(), rep.String())
	// Video scaling never extinguishes a lit channel.
	px := PatternD.PixelAt(0)
	assert.Equal(t, byte(0xFF), px[0])
}

func TestExclusiveSelectionDuringRun(t *testing.T) {
	reg := registry.New()
	recA := wire.NewRecorder()
	assert.NoError(t, reg.Register(backend.NewLoopback(recA)))
	pin := &wire.StreamPin{N: "tap", Rec: wire.NewRecorder(), Spec: ws}
	assert.NoError(t, reg.Register(backend.NewStream(pin, ws.Resolution)))

	h := New(reg, ws, 3)
	h.AttachCapture("sim", recA)
	rep := h.Run([]Case{{Driver: "sim", Lanes: 1, StripSize: 5, Pattern: PatternA}})
	assert.True(t, rep.Passed())

	// Exclusive mode left every other driver disabled.
	for _, d := range reg.List() {
		assert.Equal(t, d.Name == "sim", d.Enabled, d.Name)
	}
}

func TestReportJSONShape(t *testing.T) {
	h, _ := simHarness(t)
	rep := h.Run([]Case{{Driver: "sim", Lanes: 1, StripSize: 2, Pattern: PatternA}})
	b, err := json.Marshal(rep)
	assert.NoError(t, err)
	var decoded map[string]any
	assert.NoError(t, json.Unmarshal(b, &decoded))
	assert.EqualValues(t, 1, decoded["total"])
	results := decoded["results"].([]any)
	first := results[0].(map[string]any)
	for _, key := range []string{"driver", "lanes", "strip_size", "pattern",
		"bytes_expected", "bytes_captured", "leds_matched", "leds_total", "passed"} {
		assert.Contains(t, first, key)
	}
}

func TestTimeoutComputation(t *testing.T) {
	h, _ := simHarness(t)
	// Short frames hit the floor.
	assert.Equal(t, 25*time.Millisecond, h.timeout(10))
	// Long frames scale with transmit duration.
	big := h.timeout(100000)
	assert.Greater(t, big, 25*time.Millisecond)
	assert.Equal(t, ws.FrameDuration(100000*3)*5, big)
}
