package panel

import (
	"log"
	"sync"
	"sync/atomic"
)

var logger = log.New(log.Writer(), "[PANEL] ", log.LstdFlags|log.Lmicroseconds)

// Surface is the OS window backing the panel. The OS owns the visibility
// flag; IsVisible must report what the window system believes.
type Surface interface {
	Size() (width, height int)
	Move(x, y int)
	// Show orders the window in and makes it the key window.
	Show()
	// Hide orders the window out without destroying it.
	Hide()
	IsVisible() bool
}

// DisplayLocator answers where the pointer is and which displays exist.
type DisplayLocator interface {
	PointerPosition() (Point, error)
	Displays() ([]Display, error)
}

// State is the panel visibility as last set by the controller.
type State int32

const (
	Hidden State = iota
	Visible
)

func (s State) String() string {
	if s == Visible {
		return "visible"
	}
	return "hidden"
}

type transition int32

const (
	idle transition = iota
	showing
	hiding
)

// Controller is the panel visibility state machine. All transitions are
// serialized; each one performs the matching OS action.
type Controller struct {
	surface         Surface
	locator         DisplayLocator
	hideOnFocusLoss bool

	mu         sync.Mutex
	state      atomic.Int32
	transition atomic.Int32
}

// Option configures a Controller.
type Option func(*Controller)

// WithFocusLossDismiss controls whether losing key status hides the panel.
func WithFocusLossDismiss(enabled bool) Option {
	return func(c *Controller) {
		c.hideOnFocusLoss = enabled
	}
}

// NewController creates a controller in the Hidden state. locator may be nil,
// in which case the panel is shown wherever the surface currently sits.
func NewController(surface Surface, locator DisplayLocator, opts ...Option) *Controller {
	c := &Controller{
		surface:         surface,
		locator:         locator,
		hideOnFocusLoss: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the last state the controller put the panel in.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// IsVisible asks the OS whether the panel is on screen.
func (c *Controller) IsVisible() bool {
	return c.surface.IsVisible()
}

// Show centers the panel on the pointer's display and makes it key.
func (c *Controller) Show() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.showLocked()
}

// Hide orders the panel out.
func (c *Controller) Hide() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hideLocked()
}

// Toggle hides a visible panel and shows a hidden one. Visibility is read from
// the OS since the window can be hidden behind the controller's back.
func (c *Controller) Toggle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.surface.IsVisible() {
		c.hideLocked()
	} else {
		c.showLocked()
	}
}

// OnFocusResigned handles the OS notification that the panel stopped being the
// key window. A resign that arrives while a transition is in flight, such as
// one emitted by the OS while the panel is being positioned and presented, is
// dropped: the in-flight transition decides the final state.
func (c *Controller) OnFocusResigned() {
	if !c.hideOnFocusLoss {
		return
	}

	if !c.mu.TryLock() {
		logger.Printf("Focus resign during %s transition dropped", c.transitionName())
		return
	}
	defer c.mu.Unlock()

	c.hideLocked()
}

func (c *Controller) showLocked() {
	if c.surface.IsVisible() {
		c.state.Store(int32(Visible))
		return
	}

	c.transition.Store(int32(showing))
	defer c.transition.Store(int32(idle))

	c.position()
	c.surface.Show()
	c.state.Store(int32(Visible))
	logger.Println("Panel shown")
}

func (c *Controller) hideLocked() {
	if !c.surface.IsVisible() {
		c.state.Store(int32(Hidden))
		return
	}

	c.transition.Store(int32(hiding))
	defer c.transition.Store(int32(idle))

	c.surface.Hide()
	c.state.Store(int32(Hidden))
	logger.Println("Panel hidden")
}

// position moves the surface before it becomes visible so it never jumps.
func (c *Controller) position() {
	if c.locator == nil {
		return
	}

	displays, err := c.locator.Displays()
	if err != nil {
		logger.Printf("Failed to list displays: %v", err)
		return
	}

	pointer, err := c.locator.PointerPosition()
	if err != nil {
		// Off every display, so DisplayAt falls back to the primary one.
		logger.Printf("Failed to read pointer position: %v", err)
		pointer = Point{X: -1 << 30, Y: -1 << 30}
	}

	w, h := c.surface.Size()
	pos, ok := CenterPosition(displays, pointer, w, h)
	if !ok {
		logger.Println("No displays reported, showing panel in place")
		return
	}
	c.surface.Move(pos.X, pos.Y)
}

func (c *Controller) transitionName() string {
	switch transition(c.transition.Load()) {
	case showing:
		return "show"
	case hiding:
		return "hide"
	}
	return "idle"
}
