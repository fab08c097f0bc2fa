package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Phase is a state of the auto-restore countdown.
//
//	idle -> countdown(n) -> restoring -> done
//	             |                        ^
//	             +------- cancel ---------+
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCountdown
	PhaseRestoring
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCountdown:
		return "countdown"
	case PhaseRestoring:
		return "restoring"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Outcome is how a finished countdown ended.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeRestored
	OutcomeCancelled
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeRestored:
		return "restored"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Status is a point-in-time view of a countdown.
type Status struct {
	Phase     Phase
	Remaining int
	Outcome   Outcome
}

// Ticker is the one-second heartbeat driving a countdown.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewSecondTicker returns a real one-second ticker.
func NewSecondTicker() Ticker {
	return timeTicker{t: time.NewTicker(time.Second)}
}

// ErrCountdownStarted is returned by Run when called twice.
var ErrCountdownStarted = errors.New("countdown already started")

// Countdown counts down before auto-restoring a session. The user may cancel
// or skip ahead at any point; whichever transition out of the countdown
// happens first wins and later requests are ignored.
//
// Thread-safety: Run is called once; Cancel, RestoreNow, Status and Done are
// safe from any goroutine.
type Countdown struct {
	restore   func(ctx context.Context) error
	newTicker func() Ticker

	mu        sync.Mutex
	phase     Phase
	remaining int
	outcome   Outcome
	err       error
	wake      chan struct{}
	done      chan struct{}
	onChange  func(Status)
}

// CountdownOption configures a Countdown.
type CountdownOption func(*Countdown)

// WithTicker sets the ticker factory (default NewSecondTicker).
func WithTicker(f func() Ticker) CountdownOption {
	return func(c *Countdown) {
		c.newTicker = f
	}
}

// OnChange registers a callback invoked after every state change.
// It is called without the countdown's lock held.
func OnChange(f func(Status)) CountdownOption {
	return func(c *Countdown) {
		c.onChange = f
	}
}

// NewCountdown creates an idle countdown of seconds ticks that calls restore
// when it reaches zero. A non-positive seconds uses DefaultCountdownSeconds.
func NewCountdown(seconds int, restore func(ctx context.Context) error, opts ...CountdownOption) *Countdown {
	if seconds <= 0 {
		seconds = DefaultCountdownSeconds
	}
	c := &Countdown{
		restore:   restore,
		newTicker: NewSecondTicker,
		remaining: seconds,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run drives the countdown to completion and returns the restore error, if
// any. Cancelling ctx cancels the countdown.
func (c *Countdown) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != PhaseIdle {
		c.mu.Unlock()
		return ErrCountdownStarted
	}
	c.phase = PhaseCountdown
	c.mu.Unlock()
	c.notify()

	ticker := c.newTicker()
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ticker.C():
			c.tick()
		case <-c.wake:
		case <-ctx.Done():
			c.Cancel()
		}

		switch c.Status().Phase {
		case PhaseRestoring:
			break loop
		case PhaseDone:
			close(c.done)
			return nil
		}
	}

	err := c.restore(ctx)
	c.mu.Lock()
	c.phase = PhaseDone
	c.err = err
	if err != nil {
		c.outcome = OutcomeFailed
	} else {
		c.outcome = OutcomeRestored
	}
	c.mu.Unlock()
	c.notify()
	close(c.done)
	return err
}

func (c *Countdown) tick() {
	c.mu.Lock()
	if c.phase != PhaseCountdown {
		c.mu.Unlock()
		return
	}
	c.remaining--
	if c.remaining <= 0 {
		c.remaining = 0
		c.phase = PhaseRestoring
	}
	c.mu.Unlock()
	c.notify()
}

// Cancel stops the countdown without restoring. Returns false if the
// countdown had already left the countdown phase.
func (c *Countdown) Cancel() bool {
	return c.transition(PhaseDone, OutcomeCancelled)
}

// RestoreNow skips the remaining countdown. Returns false if the countdown
// had already left the countdown phase.
func (c *Countdown) RestoreNow() bool {
	return c.transition(PhaseRestoring, OutcomePending)
}

func (c *Countdown) transition(to Phase, outcome Outcome) bool {
	c.mu.Lock()
	if c.phase != PhaseCountdown {
		c.mu.Unlock()
		return false
	}
	c.phase = to
	c.outcome = outcome
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
	c.notify()
	return true
}

// Status returns the current state.
func (c *Countdown) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{Phase: c.phase, Remaining: c.remaining, Outcome: c.outcome}
}

// Done is closed when the countdown reaches PhaseDone.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}

// Err returns the restore error after a failed outcome.
func (c *Countdown) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Countdown) notify() {
	if c.onChange != nil {
		c.onChange(c.Status())
	}
}
