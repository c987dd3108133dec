package app

import (
	"sync"
	"time"
)

// ticker abstracts time.Ticker so countdown tests can drive ticks manually.
type ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func newRealTicker(d time.Duration) ticker {
	return realTicker{t: time.NewTicker(d)}
}

// Countdown is a one-shot per-question timer. Start arms it for a number of
// whole seconds; onTick reports every remaining value down to 0 and onExpire
// fires exactly once at the 0 boundary. Re-arming replaces the previous
// countdown and Stop guarantees no further signals from the old arming.
//
// Callbacks run outside the countdown's lock, so a Stop can slip in between
// the generation check and the callback. Each callback therefore carries the
// generation of the arming it belongs to; callers must compare it against the
// generation the matching Start returned and drop mismatches.
type Countdown struct {
	mu        sync.Mutex
	newTicker func(time.Duration) ticker

	remaining int
	armed     bool
	gen       int
	stopCh    chan struct{}

	onTick   func(gen, remaining int)
	onExpire func(gen int)
}

// NewCountdown wires the tick/expiry callbacks. Either may be nil.
func NewCountdown(onTick func(gen, remaining int), onExpire func(gen int)) *Countdown {
	return &Countdown{
		newTicker: newRealTicker,
		onTick:    onTick,
		onExpire:  onExpire,
	}
}

// Start arms the countdown from seconds down to 0, replacing any active
// arming, and returns the new arming's generation. Normalization keeps
// allotments positive, but a non-positive value is clamped to a single tick
// rather than firing synchronously.
func (c *Countdown) Start(seconds int) int {
	if seconds < 1 {
		seconds = 1
	}
	c.mu.Lock()
	c.stopLocked()
	c.remaining = seconds
	c.armed = true
	c.gen++
	gen := c.gen
	stop := make(chan struct{})
	c.stopCh = stop
	tk := c.newTicker(time.Second)
	c.mu.Unlock()

	go c.run(gen, tk, stop)
	return gen
}

func (c *Countdown) run(gen int, tk ticker, stop chan struct{}) {
	defer tk.Stop()
	for {
		select {
		case <-stop:
			return
		case <-tk.C():
			c.mu.Lock()
			if gen != c.gen || !c.armed {
				c.mu.Unlock()
				return
			}
			if c.remaining > 0 {
				c.remaining--
			}
			remaining := c.remaining
			expired := remaining == 0
			if expired {
				// Disarm before the callback so a late tick can never
				// fire expiry a second time.
				c.armed = false
			}
			onTick, onExpire := c.onTick, c.onExpire
			c.mu.Unlock()

			if onTick != nil {
				onTick(gen, remaining)
			}
			if expired {
				if onExpire != nil {
					onExpire(gen)
				}
				return
			}
		}
	}
}

// Stop halts the active countdown without firing expiry.
func (c *Countdown) Stop() {
	c.mu.Lock()
	c.stopLocked()
	c.mu.Unlock()
}

func (c *Countdown) stopLocked() {
	if c.stopCh != nil {
		close(c.stopCh)
		c.stopCh = nil
	}
	c.armed = false
	c.gen++ // invalidates any tick already in flight
}

// Remaining reports the displayed time left; never negative.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}
