package hotkey

import (
	"errors"
	"fmt"
	"log"
	"sync"
)

var logger = log.New(log.Writer(), "[HOTKEY] ", log.LstdFlags|log.Lmicroseconds)

var (
	// ErrChordClaimed is returned by backends when the OS refuses a chord
	// because another process already grabbed it.
	ErrChordClaimed = errors.New("chord already claimed")
	// ErrToggleCollision marks a target chord equal to the panel toggle chord.
	ErrToggleCollision = errors.New("chord collides with the panel toggle")
	// ErrDuplicateChord marks a chord bound by more than one target.
	ErrDuplicateChord = errors.New("chord bound more than once")
)

// ActionKind selects what a matched chord does.
type ActionKind int

const (
	ActionTogglePanel ActionKind = iota
	ActionLaunchTarget
)

// Action is what the dispatcher runs for a chord.
type Action struct {
	Kind     ActionKind
	TargetID string
}

// TogglePanel returns the built-in panel toggle action.
func TogglePanel() Action {
	return Action{Kind: ActionTogglePanel}
}

// LaunchTarget returns an action launching the target with the given id.
func LaunchTarget(id string) Action {
	return Action{Kind: ActionLaunchTarget, TargetID: id}
}

func (a Action) String() string {
	switch a.Kind {
	case ActionTogglePanel:
		return "toggle-panel"
	case ActionLaunchTarget:
		return "launch:" + a.TargetID
	}
	return fmt.Sprintf("action(%d)", a.Kind)
}

// State is the key transition carried by an event.
type State int

const (
	Pressed State = iota
	Released
)

// Event is a chord delivered by the OS.
type Event struct {
	Chord Chord
	State State
}

// Backend registers chords with the OS. Implementations deliver matching
// key events to the handler they were constructed with.
type Backend interface {
	Register(c Chord) error
	Unregister(c Chord) error
	Close() error
}

// PanelToggler is the part of the panel controller the dispatcher drives.
type PanelToggler interface {
	Toggle()
}

// TargetLauncher starts a target by id without waiting for it.
type TargetLauncher interface {
	LaunchByID(id string) error
}

// TargetBinding is the dispatcher's view of a target's hotkeys.
type TargetBinding struct {
	ID     string
	Name   string
	Chords []Chord
}

// Dispatcher owns the live chord set and routes pressed events to actions.
type Dispatcher struct {
	backend  Backend
	panel    PanelToggler
	launcher TargetLauncher

	mu       sync.Mutex
	bindings map[Chord]Action
}

// NewDispatcher creates a dispatcher with no chords registered.
func NewDispatcher(backend Backend, panel PanelToggler, launcher TargetLauncher) *Dispatcher {
	return &Dispatcher{
		backend:  backend,
		panel:    panel,
		launcher: launcher,
		bindings: make(map[Chord]Action),
	}
}

// Register binds chord to action. Re-registering a chord replaces its action
// without touching the OS grab.
func (d *Dispatcher) Register(c Chord, action Action) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.registerLocked(c, action)
}

func (d *Dispatcher) registerLocked(c Chord, action Action) error {
	if c.IsZero() {
		return fmt.Errorf("register: empty chord")
	}

	if prev, ok := d.bindings[c]; ok {
		if prev != action {
			logger.Printf("Rebinding %s: %s -> %s", c, prev, action)
		}
		d.bindings[c] = action
		return nil
	}

	if err := d.backend.Register(c); err != nil {
		return fmt.Errorf("register %s: %w", c, err)
	}
	d.bindings[c] = action
	logger.Printf("Registered %s -> %s", c, action)
	return nil
}

// Unregister drops a chord. Unknown chords are ignored.
func (d *Dispatcher) Unregister(c Chord) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.unregisterLocked(c)
}

func (d *Dispatcher) unregisterLocked(c Chord) error {
	if _, ok := d.bindings[c]; !ok {
		return nil
	}
	delete(d.bindings, c)
	if err := d.backend.Unregister(c); err != nil {
		return fmt.Errorf("unregister %s: %w", c, err)
	}
	logger.Printf("Unregistered %s", c)
	return nil
}

// Bindings returns a copy of the live chord set.
func (d *Dispatcher) Bindings() map[Chord]Action {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[Chord]Action, len(d.bindings))
	for c, a := range d.bindings {
		out[c] = a
	}
	return out
}

// Rebind replaces the whole chord set with the toggle chord plus every target
// chord. Chords colliding with the toggle are rejected, duplicated chords keep
// the first target. Every problem is returned; none of them stops the rest of
// the set from being registered.
func (d *Dispatcher) Rebind(toggle Chord, targets []TargetBinding) error {
	desired := make(map[Chord]Action)
	order := make([]Chord, 0)
	owner := make(map[Chord]string)
	var errs []error

	if !toggle.IsZero() {
		desired[toggle] = TogglePanel()
		order = append(order, toggle)
	}

	for _, t := range targets {
		for _, c := range t.Chords {
			if c.IsZero() {
				continue
			}
			if c == toggle {
				err := fmt.Errorf("%w: %s on target %q", ErrToggleCollision, c, t.Name)
				logger.Printf("Warning: %v", err)
				errs = append(errs, err)
				continue
			}
			if first, ok := owner[c]; ok {
				if first == t.ID {
					continue
				}
				err := fmt.Errorf("%w: %s on target %q, keeping %q", ErrDuplicateChord, c, t.Name, first)
				logger.Printf("Warning: %v", err)
				errs = append(errs, err)
				continue
			}
			owner[c] = t.ID
			desired[c] = LaunchTarget(t.ID)
			order = append(order, c)
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	stale := make([]Chord, 0)
	for c := range d.bindings {
		if _, ok := desired[c]; !ok {
			stale = append(stale, c)
		}
	}
	SortChords(stale)
	for _, c := range stale {
		if err := d.unregisterLocked(c); err != nil {
			logger.Printf("Failed to unregister stale chord: %v", err)
			errs = append(errs, err)
		}
	}

	for _, c := range order {
		if err := d.registerLocked(c, desired[c]); err != nil {
			logger.Printf("Failed to register chord: %v", err)
			errs = append(errs, err)
		}
	}

	logger.Printf("Rebind complete: %d chords live, %d problems", len(d.bindings), len(errs))
	return errors.Join(errs...)
}

// HandleEvent runs the action bound to a pressed chord. Released events and
// unbound chords are ignored. It reports whether an action ran.
func (d *Dispatcher) HandleEvent(ev Event) bool {
	if ev.State != Pressed {
		return false
	}

	d.mu.Lock()
	action, ok := d.bindings[ev.Chord]
	d.mu.Unlock()

	if !ok {
		logger.Printf("No binding for %s", ev.Chord)
		return false
	}

	d.run(action)
	return true
}

func (d *Dispatcher) run(action Action) {
	defer func() {
		if r := recover(); r != nil {
			logger.Printf("Action %s panicked: %v", action, r)
		}
	}()

	switch action.Kind {
	case ActionTogglePanel:
		if d.panel != nil {
			d.panel.Toggle()
		}
	case ActionLaunchTarget:
		if d.launcher == nil {
			logger.Printf("No launcher configured, dropping %s", action)
			return
		}
		if err := d.launcher.LaunchByID(action.TargetID); err != nil {
			logger.Printf("Launch %s failed: %v", action.TargetID, err)
		}
	}
}

// Close unregisters every chord and releases the backend.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for c := range d.bindings {
		if err := d.backend.Unregister(c); err != nil {
			errs = append(errs, err)
		}
	}
	d.bindings = make(map[Chord]Action)

	if err := d.backend.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
