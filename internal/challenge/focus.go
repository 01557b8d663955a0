package challenge

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/oshokin/alarm-clock/internal/domain/alarm"
)

// focusTiming groups the focus challenge timer parameters so tests can run
// the state machine with millisecond values.
type focusTiming struct {
	// minInterval and maxInterval bound the random delay between
	// confirmation prompts.
	minInterval time.Duration
	maxInterval time.Duration
	// window is how long the user has to confirm a prompt.
	window time.Duration
}

// defaultFocusTiming matches an interactive countdown of a few minutes.
func defaultFocusTiming() focusTiming {
	return focusTiming{
		minInterval: 15 * time.Second,
		maxInterval: 45 * time.Second,
		window:      10 * time.Second,
	}
}

// defaultFocusDuration is used when the spec does not configure a countdown.
const defaultFocusDuration = time.Minute

// Focus is the timed dismissal challenge: a fixed countdown that at random
// intervals demands an explicit "still here" confirmation within a short
// window. A missed confirmation is a terminal failure reported through
// Callbacks.OnFail, which is deliberately neither completion nor
// cancellation. Reaching zero without a missed confirmation completes the
// challenge.
type Focus struct {
	reporter

	rng      *rand.Rand
	duration time.Duration
	timing   focusTiming

	mu      sync.Mutex
	confirm chan struct{}
	stop    context.CancelFunc
	started bool
}

// NewFocus returns a focus challenge for the spec; call Start to begin the countdown.
func NewFocus(spec alarm.ChallengeSpec, cb Callbacks, rng *rand.Rand) *Focus {
	return newFocusTimed(spec, cb, rng, defaultFocusTiming())
}

// newFocusTimed is the test seam for custom timer parameters.
func newFocusTimed(spec alarm.ChallengeSpec, cb Callbacks, rng *rand.Rand, timing focusTiming) *Focus {
	duration := spec.Duration
	if duration <= 0 {
		duration = defaultFocusDuration
	}

	return &Focus{
		reporter: reporter{kind: alarm.ChallengeFocus, cb: cb},
		rng:      rng,
		duration: duration,
		timing:   timing,
		confirm:  make(chan struct{}, 1),
	}
}

// Start launches the countdown. onPrompt is invoked from the challenge
// goroutine each time a confirmation is demanded, with the window the user
// has to respond. Start is idempotent; only the first call runs the countdown.
func (c *Focus) Start(ctx context.Context, onPrompt func(window time.Duration)) {
	c.mu.Lock()

	if c.started {
		c.mu.Unlock()
		return
	}

	c.started = true

	runCtx, stop := context.WithCancel(ctx)
	c.stop = stop
	c.mu.Unlock()

	go c.run(runCtx, onPrompt)
}

// Confirm delivers a "still here" confirmation. Confirmations sent while no
// prompt window is open are discarded before the next prompt.
func (c *Focus) Confirm() {
	select {
	case c.confirm <- struct{}{}:
	default:
	}
}

// Cancel abandons the challenge and stops the countdown.
func (c *Focus) Cancel() {
	c.mu.Lock()
	if c.stop != nil {
		c.stop()
	}
	c.mu.Unlock()

	c.cancelled()
}

// run owns the countdown and prompt loop.
func (c *Focus) run(ctx context.Context, onPrompt func(window time.Duration)) {
	deadline := time.NewTimer(c.duration)
	defer deadline.Stop()

	for {
		interval := c.timing.minInterval
		if spread := c.timing.maxInterval - c.timing.minInterval; spread > 0 {
			interval += time.Duration(c.rng.Int63n(int64(spread)))
		}

		pause := time.NewTimer(interval)

		select {
		case <-ctx.Done():
			pause.Stop()
			return
		case <-deadline.C:
			pause.Stop()
			c.complete()

			return
		case <-pause.C:
		}

		// Drop any confirmation sent while no prompt was open so it cannot
		// satisfy the window that is about to start.
		select {
		case <-c.confirm:
		default:
		}

		if onPrompt != nil {
			onPrompt(c.timing.window)
		}

		window := time.NewTimer(c.timing.window)

		select {
		case <-ctx.Done():
			window.Stop()
			return
		case <-c.confirm:
			window.Stop()
		case <-deadline.C:
			// The countdown ran out while a prompt was open; no confirmation
			// was missed, so this counts as completion.
			window.Stop()
			c.complete()

			return
		case <-window.C:
			c.failed()
			return
		}
	}
}
