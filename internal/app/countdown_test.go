package app

import (
	"testing"
	"time"
)

type fakeTicker struct{ ch chan time.Time }

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               {}

func (f *fakeTicker) tick() { f.ch <- time.Now() }

// newTestCountdown returns a countdown driven by fake ticks plus channels
// observing tick and expiry callbacks.
func newTestCountdown() (*Countdown, *fakeTicker, chan int, chan struct{}) {
	ticks := make(chan int, 16)
	expires := make(chan struct{}, 4)
	c := NewCountdown(
		func(_, remaining int) { ticks <- remaining },
		func(int) { expires <- struct{}{} },
	)
	ft := &fakeTicker{ch: make(chan time.Time, 16)}
	c.newTicker = func(time.Duration) ticker { return ft }
	return c, ft, ticks, expires
}

func TestCountdownReachesZeroAndExpiresOnce(t *testing.T) {
	c, ft, ticks, expires := newTestCountdown()

	c.Start(3)
	if got := c.Remaining(); got != 3 {
		t.Fatalf("expected remaining 3 after start, got %d", got)
	}

	want := []int{2, 1, 0}
	for _, w := range want {
		ft.tick()
		if got := waitTick(t, ticks); got != w {
			t.Fatalf("expected remaining %d, got %d", w, got)
		}
	}

	waitExpire(t, expires)

	// Any tick after expiry must not re-fire or go negative.
	ft.tick()
	assertNoExpire(t, expires)
	if got := c.Remaining(); got != 0 {
		t.Fatalf("remaining went past zero: %d", got)
	}
}

func TestCountdownStopSuppressesExpiry(t *testing.T) {
	c, ft, ticks, expires := newTestCountdown()

	c.Start(2)
	ft.tick()
	if got := waitTick(t, ticks); got != 1 {
		t.Fatalf("expected remaining 1, got %d", got)
	}

	c.Stop()
	ft.tick()
	assertNoExpire(t, expires)
}

func TestCountdownRestartReplacesArming(t *testing.T) {
	ticks := make(chan int, 16)
	expires := make(chan struct{}, 4)
	c := NewCountdown(
		func(_, remaining int) { ticks <- remaining },
		func(int) { expires <- struct{}{} },
	)
	old := &fakeTicker{ch: make(chan time.Time, 16)}
	fresh := &fakeTicker{ch: make(chan time.Time, 16)}
	tickers := []*fakeTicker{old, fresh}
	c.newTicker = func(time.Duration) ticker {
		next := tickers[0]
		tickers = tickers[1:]
		return next
	}

	first := c.Start(5)
	second := c.Start(2)
	if first == second {
		t.Fatalf("re-arming must mint a new generation, got %d twice", first)
	}

	// The first arming is dead: its ticks must be ignored.
	old.tick()
	assertNoTick(t, ticks)

	fresh.tick()
	if got := waitTick(t, ticks); got != 1 {
		t.Fatalf("expected remaining 1 from the new arming, got %d", got)
	}
	fresh.tick()
	if got := waitTick(t, ticks); got != 0 {
		t.Fatalf("expected remaining 0, got %d", got)
	}
	waitExpire(t, expires)

	if len(expires) != 0 {
		t.Fatalf("expiry fired more than once")
	}
}

func TestCountdownCallbacksCarryArmingGeneration(t *testing.T) {
	tickGens := make(chan int, 16)
	expireGens := make(chan int, 4)
	c := NewCountdown(
		func(gen, _ int) { tickGens <- gen },
		func(gen int) { expireGens <- gen },
	)
	ft := &fakeTicker{ch: make(chan time.Time, 16)}
	c.newTicker = func(time.Duration) ticker { return ft }

	gen := c.Start(1)
	ft.tick()
	if got := waitTick(t, tickGens); got != gen {
		t.Fatalf("tick carried generation %d, Start returned %d", got, gen)
	}
	if got := waitTick(t, expireGens); got != gen {
		t.Fatalf("expiry carried generation %d, Start returned %d", got, gen)
	}
}

func TestCountdownClampsNonPositiveStart(t *testing.T) {
	c, ft, ticks, expires := newTestCountdown()

	c.Start(0)
	if got := c.Remaining(); got != 1 {
		t.Fatalf("expected clamp to 1 second, got %d", got)
	}
	ft.tick()
	if got := waitTick(t, ticks); got != 0 {
		t.Fatalf("expected remaining 0, got %d", got)
	}
	waitExpire(t, expires)
}

func waitTick(t *testing.T, ticks chan int) int {
	t.Helper()
	select {
	case v := <-ticks:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for tick")
		return 0
	}
}

func waitExpire(t *testing.T, expires chan struct{}) {
	t.Helper()
	select {
	case <-expires:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for expiry")
	}
}

func assertNoExpire(t *testing.T, expires chan struct{}) {
	t.Helper()
	select {
	case <-expires:
		t.Fatalf("unexpected expiry")
	case <-time.After(50 * time.Millisecond):
	}
}

func assertNoTick(t *testing.T, ticks chan int) {
	t.Helper()
	select {
	case v := <-ticks:
		t.Fatalf("unexpected tick %d from stale arming", v)
	case <-time.After(50 * time.Millisecond):
	}
}
