package wire

import (
	"sync"
	"time"

	"github.com/coreman2200/clockless/internal/codec"
	"github.com/coreman2200/clockless/internal/timing"
)

// SlotWrite is one composite write: every lane's level for one time
// slot, applied in a single operation.
type SlotWrite struct {
	Levels uint32
	D      time.Duration
}

// PortRecorder stands in for a same-port GPIO bank. Each WriteSlot is
// recorded whole, so tests can verify no intermediate half-lane state
// was ever presented to the pins.
type PortRecorder struct {
	mu     sync.Mutex
	lanes  int
	writes []SlotWrite
	spec   timing.Spec
}

// NewPortRecorder creates a recorder for a bank of lanes pins. spec
// supplies the reset threshold used to delimit frames and rebuild
// symbols.
func NewPortRecorder(lanes int, spec timing.Spec) *PortRecorder {
	return &PortRecorder{lanes: lanes, spec: spec}
}

func (p *PortRecorder) Width() int { return p.lanes }

// WriteSlot applies levels to all lanes atomically for duration d.
func (p *PortRecorder) WriteSlot(levels uint32, d time.Duration) error {
	p.mu.Lock()
	p.writes = append(p.writes, SlotWrite{Levels: levels, D: d})
	p.mu.Unlock()
	return nil
}

// Writes returns a copy of every composite write so far.
func (p *PortRecorder) Writes() []SlotWrite {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]SlotWrite, len(p.writes))
	copy(out, p.writes)
	return out
}

// Reset clears the recorded waveform.
func (p *PortRecorder) Reset() {
	p.mu.Lock()
	p.writes = p.writes[:0]
	p.mu.Unlock()
}

// LaneSymbols reconstructs the waveform one lane saw during the most
// recent complete frame. Frames are delimited by latch writes (all
// lanes low for at least the configured tail), so a warmup frame left
// on the port does not bleed into the next capture.
func (p *PortRecorder) LaneSymbols(lane int) []codec.Symbol {
	p.mu.Lock()
	defer p.mu.Unlock()
	frame := lastFrame(p.writes, p.spec.Reset)
	runs := make([]Run, 0, len(frame))
	for _, w := range frame {
		runs = append(runs, Run{High: w.Levels&(1<<uint(lane)) != 0, D: w.D})
	}
	return RunsToSymbols(runs, p.spec)
}

func lastFrame(writes []SlotWrite, tail time.Duration) []SlotWrite {
	last := -1
	prev := -1
	for i, w := range writes {
		if w.Levels == 0 && w.D >= tail {
			prev = last
			last = i
		}
	}
	if last < 0 {
		return writes
	}
	return writes[prev+1 : last+1]
}

// LaneCapturer adapts one lane of the port to the harness capture
// contract. The port has no arrival signaling of its own, so capture
// simply snapshots whatever the last transmission left behind.
type LaneCapturer struct {
	Port *PortRecorder
	Lane int
}

// Capture returns the lane's captured symbols, or ErrTimeout if the
// port never saw a write.
func (c *LaneCapturer) Capture(timeout time.Duration) ([]codec.Symbol, error) {
	deadline := time.Now().Add(timeout)
	for {
		if syms := c.Port.LaneSymbols(c.Lane); len(syms) > 0 {
			return syms, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrTimeout
		}
		time.Sleep(100 * time.Microsecond)
	}
}
