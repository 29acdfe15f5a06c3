package dashboard

import (
	"sync"
	"time"
)

const (
	// DefaultOverlayExitDelay keeps the overlay mounted while the exit animation plays.
	DefaultOverlayExitDelay = 300 * time.Millisecond
	// DefaultOverlayEnterDelay is how long the overlay stays in the opening phase.
	DefaultOverlayEnterDelay = 300 * time.Millisecond
)

// Overlay transition reasons reported through OverlayOptions.OnChange.
const (
	ReasonOverlayToggle    = "overlay.toggle"
	ReasonOverlayEntered   = "overlay.entered"
	ReasonOverlayUnmounted = "overlay.unmounted"
	ReasonOverlayMaximize  = "overlay.maximize"
)

// OverlayPhase is the lifecycle phase derived from ChatOverlayState.
type OverlayPhase string

const (
	OverlayClosed  OverlayPhase = "closed"
	OverlayOpening OverlayPhase = "opening"
	OverlayOpen    OverlayPhase = "open"
	OverlayClosing OverlayPhase = "closing"
)

// ChatOverlayState is the snapshot of the assistant overlay.
// Mounted follows OpenIntent immediately on open and after the exit delay on close.
type ChatOverlayState struct {
	OpenIntent bool `json:"open_intent"`
	Mounted    bool `json:"mounted"`
	Maximized  bool `json:"maximized"`
	Entering   bool `json:"entering"`
}

// Phase derives the lifecycle phase.
func (s ChatOverlayState) Phase() OverlayPhase {
	switch {
	case s.OpenIntent && s.Entering:
		return OverlayOpening
	case s.OpenIntent:
		return OverlayOpen
	case s.Mounted:
		return OverlayClosing
	default:
		return OverlayClosed
	}
}

// ShowToggle reports whether the floating toggle button is visible.
func (s ChatOverlayState) ShowToggle() bool {
	return !s.OpenIntent
}

// OverlayOptions configures a ChatOverlayController.
type OverlayOptions struct {
	ExitDelay  time.Duration
	EnterDelay time.Duration
	Clock      Clock
	OnChange   func(reason string, state ChatOverlayState)
}

// ChatOverlayController owns the open intent, the delayed mount flag and the
// maximized flag of the assistant overlay.
type ChatOverlayController struct {
	mu      sync.Mutex
	opts    OverlayOptions
	state   ChatOverlayState
	gen     uint64
	pending Timer
	stopped bool
}

// NewChatOverlayController builds a controller in the Closed phase.
func NewChatOverlayController(opts OverlayOptions) *ChatOverlayController {
	if opts.ExitDelay < 0 {
		opts.ExitDelay = 0
	}
	if opts.EnterDelay < 0 {
		opts.EnterDelay = 0
	}
	opts.Clock = normalizeClock(opts.Clock)
	return &ChatOverlayController{opts: opts}
}

// State returns the current overlay snapshot.
func (c *ChatOverlayController) State() ChatOverlayState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ToggleOpen flips the open intent. Opening mounts synchronously; closing
// schedules the unmount after the exit delay. Any pending deferred transition
// is superseded.
func (c *ChatOverlayController) ToggleOpen() ChatOverlayState {
	c.mu.Lock()
	if c.stopped {
		state := c.state
		c.mu.Unlock()
		return state
	}
	next := c.toggleLocked()
	c.mu.Unlock()
	c.notify(ReasonOverlayToggle, next)
	return next
}

// Close toggles the overlay only when it is currently intended open. The
// check and the toggle share one critical section, so repeated closes
// never re-open it.
func (c *ChatOverlayController) Close() ChatOverlayState {
	c.mu.Lock()
	if c.stopped || !c.state.OpenIntent {
		state := c.state
		c.mu.Unlock()
		return state
	}
	next := c.toggleLocked()
	c.mu.Unlock()
	c.notify(ReasonOverlayToggle, next)
	return next
}

func (c *ChatOverlayController) toggleLocked() ChatOverlayState {
	c.cancelPendingLocked()
	next := c.state
	next.OpenIntent = !next.OpenIntent
	if next.OpenIntent {
		next.Mounted = true
		next.Entering = true
		c.state = next
		c.scheduleLocked(c.opts.EnterDelay, c.settleEntry)
	} else {
		next.Entering = false
		c.state = next
		c.scheduleLocked(c.opts.ExitDelay, c.unmount)
	}
	return next
}

// SetMaximized stores the maximized flag. It is not checked against the
// mount state; setting the current value again is a no-op.
func (c *ChatOverlayController) SetMaximized(maximized bool) ChatOverlayState {
	c.mu.Lock()
	if c.stopped || c.state.Maximized == maximized {
		state := c.state
		c.mu.Unlock()
		return state
	}
	c.state.Maximized = maximized
	next := c.state
	c.mu.Unlock()
	c.notify(ReasonOverlayMaximize, next)
	return next
}

// WidgetProps returns the inputs handed to the embedded assistant widget.
func (c *ChatOverlayController) WidgetProps() AssistantProps {
	state := c.State()
	return AssistantProps{
		Maximized: state.Maximized,
		SetMaximized: func(v bool) {
			c.SetMaximized(v)
		},
		Toggle: func() {
			c.ToggleOpen()
		},
	}
}

// Stop cancels pending transitions. The controller ignores further input.
func (c *ChatOverlayController) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelPendingLocked()
	c.stopped = true
}

func (c *ChatOverlayController) scheduleLocked(delay time.Duration, fire func(gen uint64)) {
	c.gen++
	gen := c.gen
	c.pending = c.opts.Clock.AfterFunc(delay, func() {
		fire(gen)
	})
}

// cancelPendingLocked stops the pending timer and bumps the generation so a
// callback that already fired and is waiting on the lock does nothing.
func (c *ChatOverlayController) cancelPendingLocked() {
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
	c.gen++
}

func (c *ChatOverlayController) unmount(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.stopped || c.state.OpenIntent {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	c.state.Mounted = false
	c.state.Entering = false
	c.state.Maximized = false
	next := c.state
	c.mu.Unlock()
	c.notify(ReasonOverlayUnmounted, next)
}

func (c *ChatOverlayController) settleEntry(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.stopped || !c.state.OpenIntent {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	c.state.Entering = false
	next := c.state
	c.mu.Unlock()
	c.notify(ReasonOverlayEntered, next)
}

func (c *ChatOverlayController) notify(reason string, state ChatOverlayState) {
	if c.opts.OnChange != nil {
		c.opts.OnChange(reason, state)
	}
}
