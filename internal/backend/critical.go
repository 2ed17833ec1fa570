package backend

import (
	"runtime"
	"runtime/debug"
	"time"
)

// critSection pins the goroutine to its OS thread and parks the GC so
// nothing suspends the hot loop mid-pulse. A missed deadline inside a
// bit period corrupts the signal with no mid-pulse recovery; the whole
// frame must be retransmitted. exit must run on every path out of the
// loop, error paths included.
type critSection struct {
	gcPercent int
}

func enterCritical() critSection {
	runtime.LockOSThread()
	return critSection{gcPercent: debug.SetGCPercent(-1)}
}

func (c critSection) exit() {
	debug.SetGCPercent(c.gcPercent)
	runtime.UnlockOSThread()
}

// spin busy-waits on the monotonic clock. Sleeping is useless at these
// scales; scheduler wakeup latency dwarfs a 400ns pulse.
func spin(d time.Duration) {
	if d <= 0 {
		return
	}
	t0 := time.Now()
	for time.Since(t0) < d {
	}
}
