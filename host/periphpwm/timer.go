package periphpwm

import (
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultTick is the duration of one timer tick.
const DefaultTick = 10 * time.Microsecond

// ErrTimerClosed is returned by Configure after Close.
var ErrTimerClosed = errors.New("periphpwm: timer closed")

// SoftTimer implements core.CountdownTimer with clock timers. The handler
// runs on the clock's goroutine and may call Arm.
type SoftTimer struct {
	clk  clock.Clock
	tick time.Duration

	// fire holds while the handler runs so DisableIRQ can wait for it.
	fire sync.Mutex

	mu      sync.Mutex
	handler func()
	irq     bool
	gen     uint64
	pending *clock.Timer
	latched bool
	closed  bool
	fires   uint64
}

// NewSoftTimer returns a halted timer counting ticks of the given duration
// on clk. A nil clock uses the wall clock, a zero tick DefaultTick.
func NewSoftTimer(clk clock.Clock, tick time.Duration) *SoftTimer {
	if clk == nil {
		clk = clock.New()
	}
	if tick <= 0 {
		tick = DefaultTick
	}
	return &SoftTimer{clk: clk, tick: tick}
}

// Tick returns the duration of one tick.
func (t *SoftTimer) Tick() time.Duration { return t.tick }

// Configure implements core.CountdownTimer.
func (t *SoftTimer) Configure(handler func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTimerClosed
	}
	t.handler = handler
	return nil
}

// Arm implements core.CountdownTimer. A pending firing is replaced.
func (t *SoftTimer) Arm(ticks uint32) {
	if ticks == 0 {
		ticks = 1
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.stopLocked()
	gen := t.gen
	t.pending = t.clk.AfterFunc(time.Duration(ticks)*t.tick, func() {
		t.expire(gen)
	})
}

// Halt implements core.CountdownTimer.
func (t *SoftTimer) Halt() {
	t.mu.Lock()
	t.stopLocked()
	t.mu.Unlock()
}

// EnableIRQ implements core.CountdownTimer. A countdown that expired while
// the interrupt was masked fires right away.
func (t *SoftTimer) EnableIRQ() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.irq = true
	if t.latched && !t.closed {
		t.latched = false
		gen := t.gen
		t.pending = t.clk.AfterFunc(0, func() {
			t.expire(gen)
		})
	}
}

// DisableIRQ implements core.CountdownTimer. It returns once any handler
// already running has finished.
func (t *SoftTimer) DisableIRQ() {
	t.mu.Lock()
	t.irq = false
	t.mu.Unlock()

	t.fire.Lock()
	t.fire.Unlock() //nolint:staticcheck
}

// Fires returns how many times the handler ran.
func (t *SoftTimer) Fires() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fires
}

// Armed reports whether a countdown is pending.
func (t *SoftTimer) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending != nil || t.latched
}

// Close halts the timer for good.
func (t *SoftTimer) Close() error {
	t.mu.Lock()
	t.closed = true
	t.irq = false
	t.stopLocked()
	t.mu.Unlock()

	t.fire.Lock()
	t.fire.Unlock() //nolint:staticcheck
	return nil
}

// stopLocked cancels the pending firing. Callbacks already queued by the
// clock see a stale generation and do nothing.
func (t *SoftTimer) stopLocked() {
	t.gen++
	t.latched = false
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
}

func (t *SoftTimer) expire(gen uint64) {
	t.fire.Lock()
	defer t.fire.Unlock()

	t.mu.Lock()
	if gen != t.gen || t.closed || t.handler == nil {
		t.mu.Unlock()
		return
	}
	if !t.irq {
		t.latched = true
		t.mu.Unlock()
		return
	}
	t.pending = nil
	t.fires++
	h := t.handler
	t.mu.Unlock()

	h()
}
