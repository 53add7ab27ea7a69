package duel

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock is the interface we use for time operations.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) clockwork.Timer
}

// Countdown is a per-question ticking clock. Start runs a fresh countdown of
// the given number of ticks; onTick fires once per elapsed time-unit with
// the remaining count and onZero fires exactly once when the count reaches
// zero, after which the countdown stops. It does not auto-repeat: the next
// question must call Start again. Cancel stops further delivery; cancelling
// after zero already fired is a no-op.
type Countdown struct {
	clock    Clock
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

// NewCountdown returns a countdown ticking once per interval.
func NewCountdown(clock Clock, interval time.Duration) *Countdown {
	return &Countdown{clock: clock, interval: interval}
}

// Start cancels any running countdown and begins a new one. Cancellation of
// the previous run is effective before the new one is armed, so two
// countdowns never run concurrently.
func (c *Countdown) Start(ticks int, onTick func(remaining int), onZero func()) {
	c.Cancel()

	c.mu.Lock()
	stop := make(chan struct{})
	c.stop = stop
	c.mu.Unlock()

	go c.run(stop, ticks, onTick, onZero)
}

// Cancel stops delivery of further ticks. Safe to call at any time,
// including after the countdown already reached zero.
func (c *Countdown) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

func (c *Countdown) run(stop chan struct{}, ticks int, onTick func(remaining int), onZero func()) {
	remaining := ticks
	timer := c.clock.NewTimer(c.interval)
	defer stopAndDrainTimer(timer)

	for {
		select {
		case <-stop:
			return
		case <-timer.Chan():
			// A cancel racing the tick wins: stay silent once stopped.
			select {
			case <-stop:
				return
			default:
			}

			remaining--
			if remaining > 0 {
				if onTick != nil {
					onTick(remaining)
				}
				timer.Reset(c.interval)
				continue
			}

			if onZero != nil {
				onZero()
			}
			return
		}
	}
}

// stopAndDrainTimer safely stops a timer and drains its channel to prevent
// goroutine leaks, per the time.Timer.Stop() documentation.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
