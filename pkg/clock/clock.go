package clock

import (
	"sync"
	"time"
)

// Clock is the time source used by the probe loop and the sampler.
// Sleep blocks the calling goroutine; on the probe it is the only way the
// loop ever yields.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// System is the wall clock.
type System struct{}

var _ Clock = System{}

func (System) Now() time.Time { return time.Now() }

func (System) Sleep(d time.Duration) { time.Sleep(d) }

// Fake is a manually driven clock. Sleep advances time instantly, so loops
// that depend on elapsed time can be exercised without real delays.
type Fake struct {
	mu    sync.Mutex
	now   time.Time
	slept time.Duration
}

var _ Clock = (*Fake)(nil)

// NewFake creates a fake clock starting at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Sleep advances the clock by d.
func (f *Fake) Sleep(d time.Duration) {
	f.Advance(d)
	f.mu.Lock()
	f.slept += d
	f.mu.Unlock()
}

// Advance moves the clock forward without counting it as sleep.
func (f *Fake) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// Slept returns the total duration passed to Sleep.
func (f *Fake) Slept() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.slept
}
