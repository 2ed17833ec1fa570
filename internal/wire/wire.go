// Package wire simulates the physical signal path: it records what a
// backend put on the line and plays it back as captured duration pairs,
// the same shape a hardware RX peripheral would produce.
package wire

import (
	"errors"
	"math/rand"
	"time"

	"github.com/coreman2200/clockless/internal/codec"
)

// ErrTimeout reports that no frame arrived within the capture window.
var ErrTimeout = errors.New("wire: capture timed out")

// Recorder is an ideal loopback channel. Frames sent to it come back
// from Capture exactly as transmitted, optionally with bounded jitter
// for negative tests.
type Recorder struct {
	frames chan []codec.Symbol

	jitter time.Duration
	rng    *rand.Rand
}

// NewRecorder returns a recorder buffering up to a few in-flight frames.
func NewRecorder() *Recorder {
	return &Recorder{frames: make(chan []codec.Symbol, 8)}
}

// SetJitter adds uniform ±d noise to every captured duration. Zero
// disables it. The rng is seeded deterministically so failures replay.
func (r *Recorder) SetJitter(d time.Duration) {
	r.jitter = d
	r.rng = rand.New(rand.NewSource(1))
}

// Send places one transmitted frame on the wire. If the capture side
// has fallen too far behind the oldest frame is dropped; a wire has no
// backpressure.
func (r *Recorder) Send(syms []codec.Symbol) {
	cp := make([]codec.Symbol, len(syms))
	copy(cp, syms)
	if r.jitter > 0 {
		for i := range cp {
			cp[i].High = jittered(cp[i].High, r.jitter, r.rng)
			cp[i].Low = jittered(cp[i].Low, r.jitter, r.rng)
		}
	}
	for {
		select {
		case r.frames <- cp:
			return
		default:
			select {
			case <-r.frames:
			default:
			}
		}
	}
}

// Capture blocks until a frame is available or the timeout elapses.
func (r *Recorder) Capture(timeout time.Duration) ([]codec.Symbol, error) {
	select {
	case f := <-r.frames:
		return f, nil
	case <-time.After(timeout):
		return nil, ErrTimeout
	}
}

// Drain discards any frames still on the wire.
func (r *Recorder) Drain() {
	for {
		select {
		case <-r.frames:
		default:
			return
		}
	}
}

func jittered(d, j time.Duration, rng *rand.Rand) time.Duration {
	if d == 0 {
		return 0
	}
	n := time.Duration(rng.Int63n(int64(2*j+1))) - j
	if d+n < 0 {
		return 0
	}
	return d + n
}
