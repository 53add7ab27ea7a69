package duel

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestCountdownTicksDownToZero(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cd := NewCountdown(clock, time.Second)

	ticks := make(chan int, 8)
	zeros := make(chan struct{}, 8)
	cd.Start(3,
		func(remaining int) { ticks <- remaining },
		func() { zeros <- struct{}{} },
	)

	clock.BlockUntil(1)
	clock.Advance(time.Second)
	if got := recvInt(t, ticks); got != 2 {
		t.Fatalf("first tick remaining = %d, want 2", got)
	}

	clock.BlockUntil(1)
	clock.Advance(time.Second)
	if got := recvInt(t, ticks); got != 1 {
		t.Fatalf("second tick remaining = %d, want 1", got)
	}

	clock.BlockUntil(1)
	clock.Advance(time.Second)
	select {
	case <-zeros:
	case <-time.After(2 * time.Second):
		t.Fatal("onZero never fired")
	}

	// Exactly once.
	select {
	case <-zeros:
		t.Fatal("onZero fired twice")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCountdownCancelSuppressesZero(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cd := NewCountdown(clock, time.Second)

	zeros := make(chan struct{}, 1)
	cd.Start(1, nil, func() { zeros <- struct{}{} })

	clock.BlockUntil(1)
	cd.Cancel()
	clock.Advance(time.Second)

	select {
	case <-zeros:
		t.Fatal("onZero fired after cancel")
	case <-time.After(50 * time.Millisecond):
	}

	// Cancelling again, after the run already ended, is a no-op.
	cd.Cancel()
}

func TestCountdownStartSupersedesPreviousRun(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cd := NewCountdown(clock, time.Second)

	oldTicks := make(chan int, 8)
	oldZeros := make(chan struct{}, 1)
	cd.Start(5,
		func(remaining int) { oldTicks <- remaining },
		func() { oldZeros <- struct{}{} },
	)
	clock.BlockUntil(1)

	newZeros := make(chan struct{}, 1)
	cd.Start(1, nil, func() { newZeros <- struct{}{} })

	clock.BlockUntil(1)
	clock.Advance(time.Second)

	select {
	case <-newZeros:
	case <-time.After(2 * time.Second):
		t.Fatal("superseding countdown never reached zero")
	}

	select {
	case r := <-oldTicks:
		t.Fatalf("superseded countdown ticked with remaining %d", r)
	case <-oldZeros:
		t.Fatal("superseded countdown reached zero")
	case <-time.After(50 * time.Millisecond):
	}
}

func recvInt(t *testing.T, ch <-chan int) int {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tick")
		return 0
	}
}
